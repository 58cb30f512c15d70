package access

import (
	"testing"

	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"github.com/stretchr/testify/require"
)

func grants(userID string, pairs ...[2]string) []model.AccessGrant {
	out := make([]model.AccessGrant, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, model.AccessGrant{
			UserID:    userID,
			PartnerID: p[0],
			ProjectID: p[1],
			Status:    model.GrantStatusAccept,
		})
	}
	return out
}

func TestResolveScope(t *testing.T) {
	gs := grants("u1", [2]string{"partner-a", "P1"}, [2]string{"", "P2"})
	gs = append(gs, model.AccessGrant{UserID: "u1", ProjectID: "p3", Status: "PENDING"})

	s := ResolveScope(gs)
	require.True(t, s.Projects["p1"])
	require.True(t, s.Projects["p2"])
	require.True(t, s.Partners["partner-a"])
	// Непринятый грант не расширяет scope.
	require.False(t, s.Projects["p3"])
}

func TestBuildTicketQueryScoping(t *testing.T) {
	scope := ResolveScope(grants("u1", [2]string{"partner-a", "P1"}))

	t.Run("no filter uses full allowed set", func(t *testing.T) {
		q, err := BuildTicketQuery(scope, Filters{})
		require.NoError(t, err)
		require.Equal(t, []string{"p1"}, q.ProjectIDs)
		require.Equal(t, []string{"partner-a"}, q.PartnerIDs)
		require.True(t, q.ScopeUnion)
		require.False(t, q.Empty)
	})

	t.Run("partner-only grants still scope the query", func(t *testing.T) {
		partnerScope := ResolveScope(grants("u2", [2]string{"partner-b", ""}))
		q, err := BuildTicketQuery(partnerScope, Filters{})
		require.NoError(t, err)
		require.False(t, q.Empty)
		// Без партнёрского множества запрос остался бы вообще без scope-фильтра.
		require.Equal(t, []string{"partner-b"}, q.PartnerIDs)
		require.Empty(t, q.ProjectIDs)
	})

	t.Run("allowed explicit filter", func(t *testing.T) {
		q, err := BuildTicketQuery(scope, Filters{ProjectID: "P1"})
		require.NoError(t, err)
		require.Equal(t, []string{"p1"}, q.ProjectIDs)
		require.Empty(t, q.PartnerIDs)
		require.False(t, q.ScopeUnion)
	})

	t.Run("allowed explicit partner filter", func(t *testing.T) {
		q, err := BuildTicketQuery(scope, Filters{PartnerID: "partner-a"})
		require.NoError(t, err)
		require.Equal(t, []string{"partner-a"}, q.PartnerIDs)
		require.Empty(t, q.ProjectIDs)
		require.False(t, q.ScopeUnion)
	})

	t.Run("out of scope project is denied", func(t *testing.T) {
		_, err := BuildTicketQuery(scope, Filters{ProjectID: "P2"})
		require.Error(t, err)
		require.Equal(t, errs.KindAccessDenied, errs.KindOf(err))
	})

	t.Run("out of scope partner is denied", func(t *testing.T) {
		_, err := BuildTicketQuery(scope, Filters{PartnerID: "partner-b"})
		require.Error(t, err)
		require.Equal(t, errs.KindAccessDenied, errs.KindOf(err))
	})

	t.Run("no grants means empty result, not error", func(t *testing.T) {
		q, err := BuildTicketQuery(ResolveScope(nil), Filters{})
		require.NoError(t, err)
		require.True(t, q.Empty)
	})
}

func TestBuildTicketQueryPagination(t *testing.T) {
	scope := ResolveScope(grants("u1", [2]string{"", "P1"}))

	q, err := BuildTicketQuery(scope, Filters{})
	require.NoError(t, err)
	require.Equal(t, DefaultLimit, q.Limit)
	require.Equal(t, 0, q.Offset)

	q, err = BuildTicketQuery(scope, Filters{Page: 3, Limit: 20})
	require.NoError(t, err)
	require.Equal(t, 20, q.Limit)
	require.Equal(t, 40, q.Offset)

	// limit ограничен сверху.
	q, err = BuildTicketQuery(scope, Filters{Limit: 10_000})
	require.NoError(t, err)
	require.Equal(t, MaxLimit, q.Limit)
}

func TestScopeAllows(t *testing.T) {
	scope := ResolveScope(grants("u1", [2]string{"partner-a", "P1"}))

	require.True(t, scope.Allows(&model.Ticket{ProjectID: "P1"}))
	require.True(t, scope.Allows(&model.Ticket{PartnerID: "PARTNER-A"}))
	require.True(t, scope.Allows(&model.Ticket{}))
	require.False(t, scope.Allows(&model.Ticket{ProjectID: "p2"}))
	require.False(t, Scope{}.Allows(&model.Ticket{}))
}
