package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"github.com/psds-microservice/tracker-service/internal/storage"
)

// ProjectService - минимальный CRUD проектов, питающий фабрику тикетов.
type ProjectService struct {
	projects storage.ProjectRepository
}

// NewProjectService создаёт сервис проектов.
func NewProjectService(projects storage.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// CreateProjectInput - вход создания проекта. Conventions - маппинг
// TYPE -> suffix для ключей тикетов.
type CreateProjectInput struct {
	ID          string
	PartnerID   string
	Name        string
	Conventions map[string]string
}

// Create создаёт проект с таблицей конвенций. Пустой ID заменяется на UUID.
func (s *ProjectService) Create(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errs.Validation("name is required")
	}
	id := model.NormalizeID(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	project := &model.Project{
		ID:        id,
		PartnerID: model.NormalizeID(in.PartnerID),
		Name:      name,
	}
	conventions := make([]model.Convention, 0, len(in.Conventions))
	for typ, suffix := range in.Conventions {
		typ = strings.ToUpper(strings.TrimSpace(typ))
		suffix = strings.ToUpper(strings.TrimSpace(suffix))
		if typ == "" || suffix == "" {
			return nil, errs.Validation("convention entries must have both type and suffix")
		}
		conventions = append(conventions, model.Convention{
			ProjectID: id,
			Type:      typ,
			Suffix:    suffix,
		})
	}

	if err := s.projects.Create(ctx, project, conventions); err != nil {
		return nil, err
	}
	return project, nil
}

// Get возвращает проект по идентификатору.
func (s *ProjectService) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.projects.GetByID(ctx, model.NormalizeID(id))
}
