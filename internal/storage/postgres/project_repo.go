package postgres

import (
	"context"
	"errors"

	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"gorm.io/gorm"
)

// ProjectRepo - репозиторий проектов и конвенций ключей.
type ProjectRepo struct {
	db *gorm.DB
}

// NewProjectRepo создаёт репозиторий проектов.
func NewProjectRepo(db *gorm.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

// Create сохраняет проект вместе с таблицей конвенций одной транзакцией.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project, conventions []model.Convention) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			if isUniqueViolation(err, "") {
				return errs.Conflict("project %s already exists", p.ID)
			}
			return errs.Internal(err)
		}
		if len(conventions) > 0 {
			if err := tx.Create(&conventions).Error; err != nil {
				return errs.Internal(err)
			}
		}
		return nil
	})
}

// GetByID возвращает проект по идентификатору.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("project %s not found", id)
		}
		return nil, errs.Internal(err)
	}
	return &p, nil
}

// Conventions возвращает маппинг TYPE -> suffix для проекта.
func (r *ProjectRepo) Conventions(ctx context.Context, projectID string) (map[string]string, error) {
	var rows []model.Convention
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Find(&rows).Error; err != nil {
		return nil, errs.Internal(err)
	}
	m := make(map[string]string, len(rows))
	for _, c := range rows {
		m[c.Type] = c.Suffix
	}
	return m, nil
}
