package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// idxOneActiveSprint - частичный уникальный индекс "не больше одного
// активного спринта на проект" (database/migrations).
const idxOneActiveSprint = "idx_sprints_one_active_per_project"

// SprintRepo - репозиторий спринтов.
type SprintRepo struct {
	db *gorm.DB
}

// NewSprintRepo создаёт репозиторий спринтов.
func NewSprintRepo(db *gorm.DB) *SprintRepo {
	return &SprintRepo{db: db}
}

// Create сохраняет новый спринт. Возможные нарушения уникальности:
// (project_id, sprint_number) и частичный индекс активности.
func (r *SprintRepo) Create(ctx context.Context, s *model.Sprint) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err, idxOneActiveSprint) {
			// Гонка двух создающих: кто-то уже активировал спринт проекта.
			return errs.Conflict("project %s already has an active sprint", s.ProjectID)
		}
		if isUniqueViolation(err, "") {
			return errs.Conflict("sprint number %d already exists in project %s", s.SprintNumber, s.ProjectID)
		}
		return errs.Internal(err)
	}
	return nil
}

// GetBySprintID возвращает спринт по внешнему идентификатору.
func (r *SprintRepo) GetBySprintID(ctx context.Context, sprintID string) (*model.Sprint, error) {
	var s model.Sprint
	if err := r.db.WithContext(ctx).Where("sprint_id = ?", sprintID).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("sprint %s not found", sprintID)
		}
		return nil, errs.Internal(err)
	}
	return &s, nil
}

// ListByProject возвращает спринты проекта, свежие по дате старта первыми.
func (r *SprintRepo) ListByProject(ctx context.Context, projectID string) ([]model.Sprint, error) {
	var items []model.Sprint
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("start_date DESC").
		Find(&items).Error
	if err != nil {
		return nil, errs.Internal(err)
	}
	return items, nil
}

// CountByProject возвращает число спринтов проекта.
func (r *SprintRepo) CountByProject(ctx context.Context, projectID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sprint{}).
		Where("project_id = ?", projectID).
		Count(&n).Error
	if err != nil {
		return 0, errs.Internal(err)
	}
	return n, nil
}

// ActiveByProject возвращает активный спринт проекта, nil если его нет.
func (r *SprintRepo) ActiveByProject(ctx context.Context, projectID string) (*model.Sprint, error) {
	var s model.Sprint
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_active", projectID).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Internal(err)
	}
	return &s, nil
}

// NameExists проверяет дубликат имени спринта в проекте без учёта регистра.
func (r *SprintRepo) NameExists(ctx context.Context, projectID, name string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sprint{}).
		Where("project_id = ? AND LOWER(sprint_name) = LOWER(?)", projectID, name).
		Count(&n).Error
	if err != nil {
		return false, errs.Internal(err)
	}
	return n > 0, nil
}

// Overlapping проверяет пересечение окна [start, end] с существующими
// спринтами проекта: existing.start <= end AND existing.end >= start.
func (r *SprintRepo) Overlapping(ctx context.Context, projectID string, start, end time.Time, excludeSprintID string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&model.Sprint{}).
		Where("project_id = ? AND start_date <= ? AND end_date >= ?", projectID, end, start)
	if excludeSprintID != "" {
		tx = tx.Where("sprint_id <> ?", excludeSprintID)
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return false, errs.Internal(err)
	}
	return n > 0, nil
}

// Deactivate условно сбрасывает is_active одним conditional update.
// false без ошибки означает "спринт существует, но уже неактивен".
func (r *SprintRepo) Deactivate(ctx context.Context, sprintID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Sprint{}).
		Where("sprint_id = ? AND is_active", sprintID).
		Update("is_active", false)
	if res.Error != nil {
		return false, errs.Internal(res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Отличаем "уже неактивен" от "не существует".
	if _, err := r.GetBySprintID(ctx, sprintID); err != nil {
		return false, err
	}
	return false, nil
}

// Activate переключает активность проекта на указанный спринт: деактивация
// старого и активация нового - одна транзакция, строка целевого спринта
// берётся под блокировку. Конкурентная активация другого спринта того же
// проекта упрётся в частичный уникальный индекс.
func (r *SprintRepo) Activate(ctx context.Context, sprintID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s model.Sprint
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("sprint_id = ?", sprintID).
			First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.NotFound("sprint %s not found", sprintID)
		}
		if err != nil {
			return errs.Internal(err)
		}
		if s.IsActive {
			return errs.Conflict("sprint %s is already active", sprintID)
		}
		res := tx.Model(&model.Sprint{}).
			Where("project_id = ? AND is_active", s.ProjectID).
			Update("is_active", false)
		if res.Error != nil {
			return errs.Internal(res.Error)
		}
		err = tx.Model(&model.Sprint{}).
			Where("sprint_id = ?", sprintID).
			Update("is_active", true).Error
		if err != nil {
			if isUniqueViolation(err, idxOneActiveSprint) {
				return errs.Conflict("project %s already has an active sprint", s.ProjectID)
			}
			return errs.Internal(err)
		}
		return nil
	})
}

// Update применяет generic-изменения; защита lifecycle-полей выполняется
// сервисом до вызова.
func (r *SprintRepo) Update(ctx context.Context, sprintID string, changes map[string]any) (*model.Sprint, error) {
	s, err := r.GetBySprintID(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(s).Updates(changes).Error; err != nil {
		return nil, errs.Internal(err)
	}
	return s, nil
}
