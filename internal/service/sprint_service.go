package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/kafka"
	"github.com/psds-microservice/tracker-service/internal/model"
	"github.com/psds-microservice/tracker-service/internal/storage"
)

// SprintService - жизненный цикл спринтов и назначение тикетов на спринты.
type SprintService struct {
	sprints  storage.SprintRepository
	tickets  storage.TicketRepository
	projects storage.ProjectRepository
	producer kafka.EventProducer
	now      func() time.Time
}

// NewSprintService создаёт сервис спринтов.
func NewSprintService(
	sprints storage.SprintRepository,
	tickets storage.TicketRepository,
	projects storage.ProjectRepository,
	producer kafka.EventProducer,
) *SprintService {
	return &SprintService{
		sprints:  sprints,
		tickets:  tickets,
		projects: projects,
		producer: producer,
		now:      time.Now,
	}
}

// CreateSprintInput - вход создания спринта.
type CreateSprintInput struct {
	ProjectID  string
	SprintName string
	StartDate  time.Time
	EndDate    time.Time
}

// поля, которыми владеет жизненный цикл: generic-update их не меняет.
var lifecycleOwnedFields = map[string]bool{
	"is_active":     true,
	"isActive":      true,
	"sprint_number": true,
	"sprintNumber":  true,
	"project_id":    true,
	"projectId":     true,
	"partner_id":    true,
	"partnerId":     true,
}

// Create создаёт спринт: валидация дат, уникальность имени в проекте без
// учёта регистра, непересечение окон. Первый спринт проекта активируется
// автоматически; при гонке на частичном индексе активности создание
// повторяется один раз с is_active = false.
func (s *SprintService) Create(ctx context.Context, in CreateSprintInput) (*model.Sprint, error) {
	name := strings.TrimSpace(in.SprintName)
	if name == "" {
		return nil, errs.Validation("sprint_name is required")
	}
	projectID := model.NormalizeID(in.ProjectID)
	if projectID == "" {
		return nil, errs.Validation("project_id is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, errs.Validation("start_date and end_date are required")
	}
	if !in.StartDate.Before(in.EndDate) {
		return nil, errs.Validation("start_date must be before end_date")
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	exists, err := s.sprints.NameExists(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.Conflict("sprint name %q already exists in project %s", name, projectID)
	}

	overlap, err := s.sprints.Overlapping(ctx, projectID, in.StartDate, in.EndDate, "")
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, errs.Conflict("sprint window overlaps an existing sprint in project %s", projectID)
	}

	count, err := s.sprints.CountByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	active, err := s.sprints.ActiveByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	sprint := &model.Sprint{
		SprintID:     uuid.NewString(),
		ProjectID:    projectID,
		PartnerID:    model.NormalizeID(project.PartnerID),
		SprintNumber: int(count) + 1,
		SprintName:   name,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		IsActive:     active == nil,
	}
	err = s.sprints.Create(ctx, sprint)
	if err != nil && sprint.IsActive && errs.IsKind(err, errs.KindConflict) {
		// Конкурент успел активировать свой спринт между чтением и записью.
		sprint.IsActive = false
		err = s.sprints.Create(ctx, sprint)
	}
	if err != nil {
		return nil, err
	}

	s.producer.Produce(ctx, kafka.EventSprintCreated, map[string]interface{}{
		"sprint_id":     sprint.SprintID,
		"project_id":    sprint.ProjectID,
		"sprint_number": sprint.SprintNumber,
		"is_active":     sprint.IsActive,
	})
	return sprint, nil
}

// Deactivate снимает активность со спринта. Деактивация не активирует
// преемника: активация - отдельное явное действие.
func (s *SprintService) Deactivate(ctx context.Context, sprintID string) (*model.Sprint, error) {
	wasActive, err := s.sprints.Deactivate(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if !wasActive {
		return nil, errs.Conflict("sprint %s is already inactive", sprintID)
	}
	sprint, err := s.sprints.GetBySprintID(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(ctx, kafka.EventSprintDeactivated, map[string]interface{}{
		"sprint_id":  sprint.SprintID,
		"project_id": sprint.ProjectID,
	})
	return sprint, nil
}

// Activate делает спринт активным, условно деактивировав предыдущий активный
// спринт проекта в той же транзакции.
func (s *SprintService) Activate(ctx context.Context, sprintID string) (*model.Sprint, error) {
	if err := s.sprints.Activate(ctx, sprintID); err != nil {
		return nil, err
	}
	sprint, err := s.sprints.GetBySprintID(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	s.producer.Produce(ctx, kafka.EventSprintActivated, map[string]interface{}{
		"sprint_id":  sprint.SprintID,
		"project_id": sprint.ProjectID,
	})
	return sprint, nil
}

// UpdateSprintInput - generic-обновление спринта; nil-поля не меняются.
type UpdateSprintInput struct {
	SprintName *string
	StartDate  *time.Time
	EndDate    *time.Time
}

// Update применяет generic-изменения. Lifecycle-поля (is_active,
// sprint_number, project_id, partner_id) через этот путь не редактируются;
// изменение дат заново проверяет порядок и непересечение окон.
func (s *SprintService) Update(ctx context.Context, sprintID string, in UpdateSprintInput, raw map[string]any) (*model.Sprint, error) {
	for field := range raw {
		if lifecycleOwnedFields[field] {
			return nil, errs.Validation("field %q is lifecycle-owned and cannot be updated", field)
		}
	}

	sprint, err := s.sprints.GetBySprintID(ctx, sprintID)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]any)
	if in.SprintName != nil {
		name := strings.TrimSpace(*in.SprintName)
		if name == "" {
			return nil, errs.Validation("sprint_name cannot be empty")
		}
		if !strings.EqualFold(name, sprint.SprintName) {
			exists, err := s.sprints.NameExists(ctx, sprint.ProjectID, name)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, errs.Conflict("sprint name %q already exists in project %s", name, sprint.ProjectID)
			}
		}
		changes["sprint_name"] = name
	}

	start, end := sprint.StartDate, sprint.EndDate
	if in.StartDate != nil {
		start = *in.StartDate
		changes["start_date"] = start
	}
	if in.EndDate != nil {
		end = *in.EndDate
		changes["end_date"] = end
	}
	if in.StartDate != nil || in.EndDate != nil {
		if !start.Before(end) {
			return nil, errs.Validation("start_date must be before end_date")
		}
		overlap, err := s.sprints.Overlapping(ctx, sprint.ProjectID, start, end, sprintID)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, errs.Conflict("sprint window overlaps an existing sprint in project %s", sprint.ProjectID)
		}
	}

	if len(changes) == 0 {
		return nil, errs.Validation("no changes")
	}
	return s.sprints.Update(ctx, sprintID, changes)
}

// AssignTicket вручную переносит тикет в спринт. Разрешены только спринты,
// чьё окно содержит "сейчас": ни в прошлое, ни в будущее.
func (s *SprintService) AssignTicket(ctx context.Context, ticketID uint64, sprintID string) (*model.Ticket, error) {
	sprint, err := s.sprints.GetBySprintID(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if now.Before(sprint.StartDate) {
		return nil, errs.Validation("sprint %s has not started yet", sprintID)
	}
	if now.After(sprint.EndDate) {
		return nil, errs.Validation("sprint %s is already completed", sprintID)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if _, err := s.tickets.AssignSprint(ctx, []uint64{ticket.ID}, sprint.SprintID); err != nil {
		return nil, err
	}
	ticket.SprintID = &sprint.SprintID

	s.producer.Produce(ctx, kafka.EventTicketSprintAssigned, map[string]interface{}{
		"ticket_id":  ticket.ID,
		"ticket_key": ticket.TicketKey,
		"sprint_id":  sprint.SprintID,
	})
	return ticket, nil
}

// BackfillReport - итог bulk-назначения неприкреплённых тикетов.
// Standalone считает тикеты вне проектов: им спринт не назначается, и в
// no_sprint_found они не попадают.
type BackfillReport struct {
	Assigned      map[string]int64 `json:"assigned"`
	NoSprintFound []string         `json:"no_sprint_found"`
	Standalone    int64            `json:"standalone"`
	TotalAssigned int64            `json:"total_assigned"`
}

// Backfill находит все тикеты без спринта, группирует по проектам и для
// каждой группы назначает целевой спринт: активный, иначе самый свежий по
// дате старта. Обновление batched по проектам; операция идемпотентна -
// повторный запуск не находит уже назначенные тикеты.
func (s *SprintService) Backfill(ctx context.Context) (*BackfillReport, error) {
	unsprinted, err := s.tickets.Unsprinted(ctx)
	if err != nil {
		return nil, err
	}

	report := &BackfillReport{Assigned: make(map[string]int64)}
	byProject := make(map[string][]uint64)
	for _, t := range unsprinted {
		projectID := model.NormalizeID(t.ProjectID)
		byProject[projectID] = append(byProject[projectID], t.ID)
	}

	projectIDs := make([]string, 0, len(byProject))
	for projectID := range byProject {
		projectIDs = append(projectIDs, projectID)
	}
	sort.Strings(projectIDs)

	for _, projectID := range projectIDs {
		ids := byProject[projectID]
		if projectID == "" {
			// Standalone-тикеты вне проектов остаются без спринта.
			report.Standalone += int64(len(ids))
			continue
		}
		target, err := s.backfillTarget(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			report.NoSprintFound = append(report.NoSprintFound, projectID)
			continue
		}
		n, err := s.tickets.AssignSprint(ctx, ids, target.SprintID)
		if err != nil {
			return nil, err
		}
		report.Assigned[projectID] = n
		report.TotalAssigned += n
	}
	return report, nil
}

// backfillTarget выбирает спринт для бэкфилла проекта: предпочтение
// активному, иначе самый свежий по дате старта.
func (s *SprintService) backfillTarget(ctx context.Context, projectID string) (*model.Sprint, error) {
	sprints, err := s.sprints.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if len(sprints) == 0 {
		return nil, nil
	}
	for i := range sprints {
		if sprints[i].IsActive {
			return &sprints[i], nil
		}
	}
	// ListByProject отдаёт start_date DESC: первый и есть самый свежий.
	return &sprints[0], nil
}
