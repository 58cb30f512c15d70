// Package access строит access-scoped запросы листинга тикетов: пересекает
// гранты пользователя с запрошенными фильтрами и обеспечивает изоляцию
// тенантов.
package access

import (
	"sort"

	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"github.com/psds-microservice/tracker-service/internal/storage"
)

// Пределы пагинации.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Scope - разрешённые пользователю множества проектов и партнёров.
type Scope struct {
	Projects map[string]bool
	Partners map[string]bool
}

// IsEmpty сообщает, что у пользователя нет ни одного принятого гранта.
func (s Scope) IsEmpty() bool {
	return len(s.Projects) == 0 && len(s.Partners) == 0
}

// ResolveScope собирает scope из принятых грантов. Идентификаторы
// нормализуются на входе: смешанные UUID/legacy форматы дальше не живут.
func ResolveScope(grants []model.AccessGrant) Scope {
	s := Scope{
		Projects: make(map[string]bool),
		Partners: make(map[string]bool),
	}
	for _, g := range grants {
		if g.Status != model.GrantStatusAccept {
			continue
		}
		if id := model.NormalizeID(g.ProjectID); id != "" {
			s.Projects[id] = true
		}
		if id := model.NormalizeID(g.PartnerID); id != "" {
			s.Partners[id] = true
		}
	}
	return s
}

// Filters - запрошенные вызывающим фильтры листинга.
type Filters struct {
	ProjectID string
	PartnerID string
	Status    string
	Priority  string
	Assignee  string
	Reporter  string
	Page      int
	Limit     int
}

// BuildTicketQuery пересекает scope пользователя с фильтрами. Явный фильтр
// вне разрешённого множества - AccessDenied; без явных фильтров действует
// IN-семантика по всему разрешённому множеству: проектные и партнёрские
// гранты объединяются через OR, как и Allows при чтении одного тикета.
// Пустой scope - пустой результат, не ошибка.
func BuildTicketQuery(scope Scope, f Filters) (storage.TicketListQuery, error) {
	q := storage.TicketListQuery{
		Status:   f.Status,
		Priority: f.Priority,
		Assignee: f.Assignee,
		Reporter: f.Reporter,
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	q.Limit = limit
	q.Offset = (page - 1) * limit

	if scope.IsEmpty() {
		q.Empty = true
		return q, nil
	}

	reqProject := model.NormalizeID(f.ProjectID)
	reqPartner := model.NormalizeID(f.PartnerID)
	if reqProject == "" && reqPartner == "" {
		q.ScopeUnion = true
		q.ProjectIDs = sortedKeys(scope.Projects)
		q.PartnerIDs = sortedKeys(scope.Partners)
		return q, nil
	}

	if reqProject != "" {
		if !scope.Projects[reqProject] {
			return storage.TicketListQuery{}, errs.AccessDenied("no access to project %s", reqProject)
		}
		q.ProjectIDs = []string{reqProject}
	}
	if reqPartner != "" {
		if !scope.Partners[reqPartner] {
			return storage.TicketListQuery{}, errs.AccessDenied("no access to partner %s", reqPartner)
		}
		q.PartnerIDs = []string{reqPartner}
	}
	return q, nil
}

// Allows проверяет доступ scope к конкретному тикету (для чтения одного
// тикета). Standalone-тикеты без проекта видны любому пользователю с хотя бы
// одним грантом.
func (s Scope) Allows(t *model.Ticket) bool {
	if s.IsEmpty() {
		return false
	}
	if t.ProjectID == "" {
		return true
	}
	if s.Projects[model.NormalizeID(t.ProjectID)] {
		return true
	}
	return t.PartnerID != "" && s.Partners[model.NormalizeID(t.PartnerID)]
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
