package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"github.com/psds-microservice/tracker-service/internal/storage"
)

// In-memory реализации репозиториев для юнит-тестов сервисов. Семантика
// повторяет постгресовые реализации, включая трансляцию нарушений
// уникальности в CONFLICT.

type fakeCounterRepo struct {
	mu      sync.Mutex
	seqs    map[string]int64
	failAll bool
}

func newFakeCounterRepo() *fakeCounterRepo {
	return &fakeCounterRepo{seqs: make(map[string]int64)}
}

func (f *fakeCounterRepo) Next(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, errors.New("counter storage unavailable")
	}
	f.seqs[key]++
	return f.seqs[key], nil
}

func (f *fakeCounterRepo) Current(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return 0, errors.New("counter storage unavailable")
	}
	return f.seqs[key], nil
}

type fakeTicketRepo struct {
	mu      sync.Mutex
	nextID  uint64
	tickets map[uint64]*model.Ticket
	keys    map[string]bool
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets: make(map[uint64]*model.Ticket),
		keys:    make(map[string]bool),
	}
}

func (f *fakeTicketRepo) Create(_ context.Context, t *model.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[t.TicketKey] {
		return errs.Conflict("ticket key %q already exists", t.TicketKey)
	}
	f.nextID++
	t.ID = f.nextID
	t.CreatedAt = time.Now()
	cp := *t
	f.tickets[t.ID] = &cp
	f.keys[t.TicketKey] = true
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id uint64) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, errs.NotFound("ticket %d not found", id)
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTicketRepo) List(_ context.Context, q storage.TicketListQuery) ([]model.Ticket, int64, error) {
	if q.Empty {
		return []model.Ticket{}, 0, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	contains := func(set []string, v string) bool {
		for _, s := range set {
			if s == v {
				return true
			}
		}
		return false
	}
	inScope := func(t *model.Ticket) bool {
		if q.ScopeUnion && len(q.ProjectIDs) > 0 && len(q.PartnerIDs) > 0 {
			return contains(q.ProjectIDs, t.ProjectID) || contains(q.PartnerIDs, t.PartnerID)
		}
		if len(q.ProjectIDs) > 0 && !contains(q.ProjectIDs, t.ProjectID) {
			return false
		}
		if len(q.PartnerIDs) > 0 && !contains(q.PartnerIDs, t.PartnerID) {
			return false
		}
		return true
	}

	var matched []model.Ticket
	for _, t := range f.tickets {
		if !inScope(t) {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if q.Assignee != "" && t.Assignee != q.Assignee {
			continue
		}
		if q.Reporter != "" && t.Reporter != q.Reporter {
			continue
		}
		if q.Priority != "" {
			found := false
			for _, p := range t.Priority {
				if p == q.Priority {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		matched = append(matched, *t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	if q.Offset >= len(matched) {
		return []model.Ticket{}, total, nil
	}
	matched = matched[q.Offset:]
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (f *fakeTicketRepo) Unsprinted(_ context.Context) ([]model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Ticket
	for _, t := range f.tickets {
		if t.SprintID == nil || *t.SprintID == "" {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTicketRepo) AssignSprint(_ context.Context, ids []uint64, sprintID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, id := range ids {
		if t, ok := f.tickets[id]; ok {
			sp := sprintID
			t.SprintID = &sp
			n++
		}
	}
	return n, nil
}

func (f *fakeTicketRepo) AppendTimeLog(_ context.Context, id uint64, entry model.TimeLog) (*model.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, errs.NotFound("ticket %d not found", id)
	}
	t.TimeLogs = append(t.TimeLogs, entry)
	t.TotalTimeLogged += int64(entry.Minutes)
	cp := *t
	return &cp, nil
}

type fakeSprintRepo struct {
	mu      sync.Mutex
	sprints map[string]*model.Sprint
}

func newFakeSprintRepo() *fakeSprintRepo {
	return &fakeSprintRepo{sprints: make(map[string]*model.Sprint)}
}

func (f *fakeSprintRepo) Create(_ context.Context, s *model.Sprint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sp := range f.sprints {
		if sp.ProjectID != s.ProjectID {
			continue
		}
		if sp.SprintNumber == s.SprintNumber {
			return errs.Conflict("sprint number %d already exists in project %s", s.SprintNumber, s.ProjectID)
		}
		// Частичный уникальный индекс: не больше одного активного на проект.
		if s.IsActive && sp.IsActive {
			return errs.Conflict("project %s already has an active sprint", s.ProjectID)
		}
	}
	cp := *s
	f.sprints[s.SprintID] = &cp
	return nil
}

func (f *fakeSprintRepo) GetBySprintID(_ context.Context, sprintID string) (*model.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sprints[sprintID]
	if !ok {
		return nil, errs.NotFound("sprint %s not found", sprintID)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSprintRepo) ListByProject(_ context.Context, projectID string) ([]model.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Sprint
	for _, s := range f.sprints {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeSprintRepo) CountByProject(_ context.Context, projectID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sprints {
		if s.ProjectID == projectID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSprintRepo) ActiveByProject(_ context.Context, projectID string) (*model.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sprints {
		if s.ProjectID == projectID && s.IsActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeSprintRepo) NameExists(_ context.Context, projectID, name string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sprints {
		if s.ProjectID == projectID && strings.EqualFold(s.SprintName, name) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSprintRepo) Overlapping(_ context.Context, projectID string, start, end time.Time, excludeSprintID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sprints {
		if s.ProjectID != projectID || s.SprintID == excludeSprintID {
			continue
		}
		if !s.StartDate.After(end) && !s.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeSprintRepo) Deactivate(_ context.Context, sprintID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sprints[sprintID]
	if !ok {
		return false, errs.NotFound("sprint %s not found", sprintID)
	}
	if !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	return true, nil
}

func (f *fakeSprintRepo) Activate(_ context.Context, sprintID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sprints[sprintID]
	if !ok {
		return errs.NotFound("sprint %s not found", sprintID)
	}
	if s.IsActive {
		return errs.Conflict("sprint %s is already active", sprintID)
	}
	for _, other := range f.sprints {
		if other.ProjectID == s.ProjectID && other.IsActive {
			other.IsActive = false
		}
	}
	s.IsActive = true
	return nil
}

func (f *fakeSprintRepo) Update(_ context.Context, sprintID string, changes map[string]any) (*model.Sprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sprints[sprintID]
	if !ok {
		return nil, errs.NotFound("sprint %s not found", sprintID)
	}
	for k, v := range changes {
		switch k {
		case "sprint_name":
			s.SprintName = v.(string)
		case "start_date":
			s.StartDate = v.(time.Time)
		case "end_date":
			s.EndDate = v.(time.Time)
		}
	}
	cp := *s
	return &cp, nil
}

type fakeProjectRepo struct {
	mu          sync.Mutex
	projects    map[string]*model.Project
	conventions map[string]map[string]string
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{
		projects:    make(map[string]*model.Project),
		conventions: make(map[string]map[string]string),
	}
}

func (f *fakeProjectRepo) Create(_ context.Context, p *model.Project, conventions []model.Convention) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[p.ID]; ok {
		return errs.Conflict("project %s already exists", p.ID)
	}
	cp := *p
	f.projects[p.ID] = &cp
	m := make(map[string]string, len(conventions))
	for _, c := range conventions {
		m[c.Type] = c.Suffix
	}
	f.conventions[p.ID] = m
	return nil
}

func (f *fakeProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, errs.NotFound("project %s not found", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectRepo) Conventions(_ context.Context, projectID string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string)
	for k, v := range f.conventions[projectID] {
		out[k] = v
	}
	return out, nil
}

type fakeGrantRepo struct {
	grants []model.AccessGrant
}

func (f *fakeGrantRepo) AcceptedByUser(_ context.Context, userID string) ([]model.AccessGrant, error) {
	var out []model.AccessGrant
	for _, g := range f.grants {
		if g.UserID == userID && g.Status == model.GrantStatusAccept {
			out = append(out, g)
		}
	}
	return out, nil
}

type fakeProducer struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeProducer) Produce(_ context.Context, event string, _ map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}
