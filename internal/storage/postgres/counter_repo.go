package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/psds-microservice/tracker-service/internal/model"
	"gorm.io/gorm"
)

// CounterRepo - атомарный счётчик последовательностей в таблице counters.
type CounterRepo struct {
	db *gorm.DB
}

// NewCounterRepo создаёт репозиторий счётчиков.
func NewCounterRepo(db *gorm.DB) *CounterRepo {
	return &CounterRepo{db: db}
}

// Next атомарно инкрементирует счётчик и возвращает новое значение.
// Upsert и инкремент - один SQL-оператор: при N конкурентных вызовах по
// одному ключу значения образуют непрерывный ряд без повторов, линеаризацию
// обеспечивает сама база.
func (r *CounterRepo) Next(ctx context.Context, key string) (int64, error) {
	var seq int64
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO counters (key, seq)
		VALUES (?, 1)
		ON CONFLICT (key) DO UPDATE SET seq = counters.seq + 1
		RETURNING seq
	`, key).Scan(&seq).Error
	if err != nil {
		return 0, fmt.Errorf("counter next %q: %w", key, err)
	}
	return seq, nil
}

// Current возвращает текущее значение счётчика без инкремента.
func (r *CounterRepo) Current(ctx context.Context, key string) (int64, error) {
	var c model.Counter
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("counter current %q: %w", key, err)
	}
	return c.Seq, nil
}
