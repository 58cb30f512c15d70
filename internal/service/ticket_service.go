package service

import (
	"context"
	"strings"
	"time"

	"github.com/psds-microservice/tracker-service/internal/access"
	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/kafka"
	"github.com/psds-microservice/tracker-service/internal/keys"
	"github.com/psds-microservice/tracker-service/internal/model"
	"github.com/psds-microservice/tracker-service/internal/storage"
)

// TicketService - фабрика тикетов и access-scoped чтение.
type TicketService struct {
	tickets  storage.TicketRepository
	counters storage.CounterRepository
	projects storage.ProjectRepository
	grants   storage.GrantRepository
	producer kafka.EventProducer
	now      func() time.Time
}

// NewTicketService создаёт сервис тикетов.
func NewTicketService(
	tickets storage.TicketRepository,
	counters storage.CounterRepository,
	projects storage.ProjectRepository,
	grants storage.GrantRepository,
	producer kafka.EventProducer,
) *TicketService {
	return &TicketService{
		tickets:  tickets,
		counters: counters,
		projects: projects,
		grants:   grants,
		producer: producer,
		now:      time.Now,
	}
}

// CreateTicketInput - вход фабрики тикетов.
type CreateTicketInput struct {
	ProjectID   string
	Type        string
	Title       string
	Description string
	Status      string
	Priority    []string
	Assignee    string
	Reporter    string
}

// Create создаёт тикет: валидация, атомарная аллокация последовательности,
// формирование ключа, сохранение. Аллокация вызывается ровно один раз; если
// сохранение после неё падает, значение счётчика остаётся потреблённым -
// постоянный пропуск в последовательности принят осознанно, ключи обязаны
// быть уникальными и возрастающими, но не непрерывными.
func (s *TicketService) Create(ctx context.Context, userID string, in CreateTicketInput) (*model.Ticket, error) {
	title := strings.TrimSpace(in.Title)
	typ := strings.ToUpper(strings.TrimSpace(in.Type))
	if title == "" {
		return nil, errs.Validation("title is required")
	}
	if typ == "" {
		return nil, errs.Validation("type is required")
	}

	projectID := model.NormalizeID(in.ProjectID)
	partnerID := ""
	conventions := map[string]string{}
	if projectID != "" {
		project, err := s.projects.GetByID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if project.Archived {
			return nil, errs.Validation("project %s is archived", projectID)
		}
		partnerID = model.NormalizeID(project.PartnerID)
		if conventions, err = s.projects.Conventions(ctx, projectID); err != nil {
			return nil, err
		}
	}

	priority := make([]string, 0, len(in.Priority))
	for _, p := range in.Priority {
		if p = strings.ToUpper(strings.TrimSpace(p)); p != "" {
			priority = append(priority, p)
		}
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = model.TicketStatusOpen
	}
	assignee := strings.TrimSpace(in.Assignee)
	if assignee == "" {
		assignee = model.UnassignedUser
	}
	reporter := strings.TrimSpace(in.Reporter)
	if reporter == "" {
		reporter = userID
	}

	seq, err := s.counters.Next(ctx, model.CounterKey(projectID, typ))
	if err != nil {
		// Тикет никогда не сохраняется без уникально принадлежащего ему
		// номера последовательности.
		return nil, errs.Internal(err)
	}

	ticket := &model.Ticket{
		ProjectID:      projectID,
		PartnerID:      partnerID,
		Type:           typ,
		Title:          title,
		Description:    in.Description,
		Status:         status,
		Priority:       priority,
		SequenceNumber: seq,
		TicketKey:      keys.Format(keys.SuffixFor(conventions, typ), seq, title),
		Assignee:       assignee,
		Reporter:       reporter,
		TimeLogs:       model.TimeLogs{},
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.producer.Produce(ctx, kafka.EventTicketCreated, map[string]interface{}{
		"ticket_id":  ticket.ID,
		"ticket_key": ticket.TicketKey,
		"project_id": ticket.ProjectID,
		"type":       ticket.Type,
		"status":     ticket.Status,
		"reporter":   ticket.Reporter,
	})
	return ticket, nil
}

// PreviewNextKey предсказывает ключ, который получит следующий тикет пары
// (проект, тип), не потребляя значение счётчика. Без конкурентных созданий
// между preview и create ключи совпадут.
func (s *TicketService) PreviewNextKey(ctx context.Context, projectID, ticketType, title string) (string, error) {
	typ := strings.ToUpper(strings.TrimSpace(ticketType))
	if typ == "" {
		return "", errs.Validation("type is required")
	}
	projectID = model.NormalizeID(projectID)

	conventions := map[string]string{}
	if projectID != "" {
		var err error
		if conventions, err = s.projects.Conventions(ctx, projectID); err != nil {
			return "", err
		}
	}
	current, err := s.counters.Current(ctx, model.CounterKey(projectID, typ))
	if err != nil {
		return "", errs.Internal(err)
	}
	return keys.Format(keys.SuffixFor(conventions, typ), current+1, strings.TrimSpace(title)), nil
}

// Get возвращает тикет, проверив scope вызывающего.
func (s *TicketService) Get(ctx context.Context, userID string, id uint64) (*model.Ticket, error) {
	t, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	grants, err := s.grants.AcceptedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !access.ResolveScope(grants).Allows(t) {
		return nil, errs.AccessDenied("no access to ticket %d", id)
	}
	return t, nil
}

// List выполняет access-scoped листинг тикетов.
func (s *TicketService) List(ctx context.Context, userID string, f access.Filters) ([]model.Ticket, int64, error) {
	grants, err := s.grants.AcceptedByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	q, err := access.BuildTicketQuery(access.ResolveScope(grants), f)
	if err != nil {
		return nil, 0, err
	}
	return s.tickets.List(ctx, q)
}

// LogTime добавляет запись учёта времени по тикету.
func (s *TicketService) LogTime(ctx context.Context, userID string, id uint64, minutes int, note string) (*model.Ticket, error) {
	if minutes <= 0 {
		return nil, errs.Validation("minutes must be positive")
	}
	entry := model.TimeLog{
		Minutes:  minutes,
		Note:     note,
		LoggedBy: userID,
		At:       s.now().UTC(),
	}
	t, err := s.tickets.AppendTimeLog(ctx, id, entry)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(ctx, kafka.EventTicketTimeLogged, map[string]interface{}{
		"ticket_id":  t.ID,
		"ticket_key": t.TicketKey,
		"minutes":    minutes,
		"logged_by":  userID,
	})
	return t, nil
}
