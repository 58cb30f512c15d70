// Package storage описывает интерфейсы репозиториев. Реализации живут в
// storage/postgres; сервисы зависят только от этих интерфейсов.
package storage

import (
	"context"
	"time"

	"github.com/psds-microservice/tracker-service/internal/model"
)

// TicketListQuery - собранный access-scoped запрос листинга тикетов.
// Его строит пакет access; репозиторий лишь транслирует в SQL.
type TicketListQuery struct {
	// Empty означает "у вызывающего нет принятых грантов": пустой результат
	// без обращения к базе и без ошибки.
	Empty bool

	// ScopeUnion: ProjectIDs и PartnerIDs - scope-множества грантов, тикет
	// проходит при попадании в любое из них (OR, как при чтении одного
	// тикета). Без флага это явные фильтры, комбинируемые через AND.
	ScopeUnion bool

	ProjectIDs []string
	PartnerIDs []string

	Status   string
	Priority string
	Assignee string
	Reporter string

	Limit  int
	Offset int
}

// CounterRepository - атомарный счётчик последовательностей.
// Единственная мутация - Next; ручного read-then-write у счётчика нет.
type CounterRepository interface {
	// Next атомарно инкрементирует счётчик ключа и возвращает новое значение.
	// Отсутствующий счётчик создаётся со значением 1 тем же атомарным шагом.
	Next(ctx context.Context, key string) (int64, error)
	// Current возвращает текущее значение без инкремента (0, если счётчика
	// ещё нет). Используется только для preview следующего ключа.
	Current(ctx context.Context, key string) (int64, error)
}

// TicketRepository - репозиторий тикетов.
type TicketRepository interface {
	Create(ctx context.Context, t *model.Ticket) error
	GetByID(ctx context.Context, id uint64) (*model.Ticket, error)
	List(ctx context.Context, q TicketListQuery) ([]model.Ticket, int64, error)
	// Unsprinted возвращает тикеты с пустым полем sprint.
	Unsprinted(ctx context.Context) ([]model.Ticket, error)
	// AssignSprint batched-обновлением проставляет sprint_id списку тикетов.
	AssignSprint(ctx context.Context, ids []uint64, sprintID string) (int64, error)
	// AppendTimeLog добавляет запись в time_logs и увеличивает total_time_logged.
	AppendTimeLog(ctx context.Context, id uint64, entry model.TimeLog) (*model.Ticket, error)
}

// SprintRepository - репозиторий спринтов.
type SprintRepository interface {
	Create(ctx context.Context, s *model.Sprint) error
	GetBySprintID(ctx context.Context, sprintID string) (*model.Sprint, error)
	ListByProject(ctx context.Context, projectID string) ([]model.Sprint, error)
	CountByProject(ctx context.Context, projectID string) (int64, error)
	ActiveByProject(ctx context.Context, projectID string) (*model.Sprint, error)
	// NameExists проверяет дубликат имени в проекте без учёта регистра.
	NameExists(ctx context.Context, projectID, name string) (bool, error)
	// Overlapping проверяет пересечение окна [start, end] с существующими
	// спринтами проекта; excludeSprintID исключает сам спринт при update.
	Overlapping(ctx context.Context, projectID string, start, end time.Time, excludeSprintID string) (bool, error)
	// Deactivate условно сбрасывает is_active; вторым значением возвращает,
	// был ли спринт активен на момент обновления.
	Deactivate(ctx context.Context, sprintID string) (bool, error)
	// Activate в одной транзакции деактивирует текущий активный спринт
	// проекта и активирует указанный. Гонка двух активаций упирается в
	// частичный уникальный индекс и возвращает ошибку дубликата.
	Activate(ctx context.Context, sprintID string) error
	Update(ctx context.Context, sprintID string, changes map[string]any) (*model.Sprint, error)
}

// ProjectRepository - репозиторий проектов и их конвенций ключей.
type ProjectRepository interface {
	Create(ctx context.Context, p *model.Project, conventions []model.Convention) error
	GetByID(ctx context.Context, id string) (*model.Project, error)
	// Conventions возвращает маппинг TYPE -> suffix для проекта.
	Conventions(ctx context.Context, projectID string) (map[string]string, error)
}

// GrantRepository - read-only доступ к грантам (внешнее хранилище).
type GrantRepository interface {
	// AcceptedByUser возвращает принятые гранты пользователя.
	AcceptedByUser(ctx context.Context, userID string) ([]model.AccessGrant, error)
}
