package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    *Error
		status int
	}{
		{Validation("bad input"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusConflict},
		{AccessDenied("nope"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, tc.err.HTTPStatus())
	}
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindValidation, KindOf(Validation("x")))
	require.Equal(t, KindInternal, KindOf(errors.New("plain")))

	// Код различим и через цепочку обёрток.
	wrapped := fmt.Errorf("create ticket: %w", Conflict("dup key"))
	require.Equal(t, KindConflict, KindOf(wrapped))
	require.True(t, IsKind(wrapped, KindConflict))
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("storage down")
	err := Internal(cause)
	require.ErrorIs(t, err, cause)
	// Наружу уходит непрозрачное сообщение, причина остаётся в обёртке.
	require.Equal(t, "internal error", err.Message)
}
