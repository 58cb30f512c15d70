package postgres

import (
	"context"
	"errors"

	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"github.com/psds-microservice/tracker-service/internal/storage"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketRepo - репозиторий тикетов.
type TicketRepo struct {
	db *gorm.DB
}

// NewTicketRepo создаёт репозиторий тикетов.
func NewTicketRepo(db *gorm.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

// Create сохраняет новый тикет. Нарушение уникальности ключа или пары
// (project, type, sequence) транслируется в CONFLICT: вызывающий может
// повторить создание с новой аллокацией.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		if isUniqueViolation(err, "") {
			return errs.Conflict("ticket key %q already exists", t.TicketKey)
		}
		return errs.Internal(err)
	}
	return nil
}

// GetByID возвращает тикет по внутреннему id.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	var t model.Ticket
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFound("ticket %d not found", id)
		}
		return nil, errs.Internal(err)
	}
	return &t, nil
}

// List выполняет access-scoped листинг. Запрос уже собран пакетом access,
// здесь он только транслируется в SQL.
func (r *TicketRepo) List(ctx context.Context, q storage.TicketListQuery) ([]model.Ticket, int64, error) {
	if q.Empty {
		return []model.Ticket{}, 0, nil
	}
	tx := r.db.WithContext(ctx).Model(&model.Ticket{})
	if q.ScopeUnion && len(q.ProjectIDs) > 0 && len(q.PartnerIDs) > 0 {
		tx = tx.Where("project_id IN ? OR partner_id IN ?", q.ProjectIDs, q.PartnerIDs)
	} else {
		if len(q.ProjectIDs) > 0 {
			tx = tx.Where("project_id IN ?", q.ProjectIDs)
		}
		if len(q.PartnerIDs) > 0 {
			tx = tx.Where("partner_id IN ?", q.PartnerIDs)
		}
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Priority != "" {
		tx = tx.Where("? = ANY(priority)", q.Priority)
	}
	if q.Assignee != "" {
		tx = tx.Where("assignee = ?", q.Assignee)
	}
	if q.Reporter != "" {
		tx = tx.Where("reporter = ?", q.Reporter)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, errs.Internal(err)
	}

	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	var items []model.Ticket
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, errs.Internal(err)
	}
	return items, total, nil
}

// Unsprinted возвращает тикеты без назначенного спринта.
func (r *TicketRepo) Unsprinted(ctx context.Context) ([]model.Ticket, error) {
	var items []model.Ticket
	err := r.db.WithContext(ctx).
		Where("sprint_id IS NULL OR sprint_id = ''").
		Find(&items).Error
	if err != nil {
		return nil, errs.Internal(err)
	}
	return items, nil
}

// AssignSprint одним batched-обновлением проставляет sprint_id списку тикетов.
func (r *TicketRepo) AssignSprint(ctx context.Context, ids []uint64, sprintID string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Ticket{}).
		Where("id IN ?", ids).
		Update("sprint_id", sprintID)
	if res.Error != nil {
		return 0, errs.Internal(res.Error)
	}
	return res.RowsAffected, nil
}

// AppendTimeLog добавляет запись учёта времени и пересчитывает
// total_time_logged под блокировкой строки.
func (r *TicketRepo) AppendTimeLog(ctx context.Context, id uint64, entry model.TimeLog) (*model.Ticket, error) {
	var t model.Ticket
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.NotFound("ticket %d not found", id)
			}
			return errs.Internal(err)
		}
		t.TimeLogs = append(t.TimeLogs, entry)
		t.TotalTimeLogged += int64(entry.Minutes)
		updates := map[string]any{
			"time_logs":         t.TimeLogs,
			"total_time_logged": t.TotalTimeLogged,
		}
		if err := tx.Model(&t).Updates(updates).Error; err != nil {
			return errs.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}
