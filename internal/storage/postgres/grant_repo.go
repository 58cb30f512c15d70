package postgres

import (
	"context"

	"github.com/psds-microservice/tracker-service/internal/errs"
	"github.com/psds-microservice/tracker-service/internal/model"
	"gorm.io/gorm"
)

// GrantRepo - read-only доступ к грантам пользователей.
type GrantRepo struct {
	db *gorm.DB
}

// NewGrantRepo создаёт репозиторий грантов.
func NewGrantRepo(db *gorm.DB) *GrantRepo {
	return &GrantRepo{db: db}
}

// AcceptedByUser возвращает принятые гранты пользователя.
func (r *GrantRepo) AcceptedByUser(ctx context.Context, userID string) ([]model.AccessGrant, error) {
	var items []model.AccessGrant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.GrantStatusAccept).
		Find(&items).Error
	if err != nil {
		return nil, errs.Internal(err)
	}
	return items, nil
}
