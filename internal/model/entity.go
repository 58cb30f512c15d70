package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// Статусы спринта, производные от isActive и окна дат.
const (
	SprintStatusPlanned   = "PLANNED"
	SprintStatusActive    = "ACTIVE"
	SprintStatusCompleted = "COMPLETED"
)

// Дефолты тикета при создании.
const (
	TicketStatusOpen  = "OPEN"
	UnassignedUser    = "Unassigned"
	GrantStatusAccept = "ACCEPTED"
)

// TimeLog - одна запись учёта времени по тикету (append-only).
type TimeLog struct {
	Minutes  int       `json:"minutes"`
	Note     string    `json:"note,omitempty"`
	LoggedBy string    `json:"logged_by"`
	At       time.Time `json:"at"`
}

// TimeLogs хранится в tickets.time_logs как jsonb.
type TimeLogs []TimeLog

// Value реализует driver.Valuer.
func (l TimeLogs) Value() (driver.Value, error) {
	if l == nil {
		l = TimeLogs{}
	}
	return json.Marshal(l)
}

// Scan реализует sql.Scanner.
func (l *TimeLogs) Scan(src any) error {
	if src == nil {
		*l = TimeLogs{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("time_logs: unsupported source type %T", src)
	}
	return json.Unmarshal(data, l)
}

// Counter - счётчик последовательности на пару (проект, тип).
// Мутируется только атомарным инкрементом, никогда не удаляется.
type Counter struct {
	Key string `gorm:"primaryKey;size:160" json:"key"`
	Seq int64  `gorm:"not null;default:0" json:"seq"`
}

// TableName задаёт имя таблицы.
func (Counter) TableName() string { return "counters" }

// Ticket - единица работы.
type Ticket struct {
	ID             uint64         `gorm:"primaryKey" json:"id"`
	ProjectID      string         `gorm:"size:64;index" json:"project_id,omitempty"`
	PartnerID      string         `gorm:"size:64;index" json:"partner_id,omitempty"`
	Type           string         `gorm:"size:32;not null" json:"type"`
	Title          string         `gorm:"size:255;not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description,omitempty"`
	Status         string         `gorm:"size:64;not null;index" json:"status"`
	Priority       pq.StringArray `gorm:"type:text[]" json:"priority,omitempty"`
	SequenceNumber int64          `gorm:"not null" json:"sequence_number"`
	TicketKey      string         `gorm:"size:128;uniqueIndex;not null" json:"ticket_key"`
	Assignee       string         `gorm:"size:128;index" json:"assignee"`
	Reporter       string         `gorm:"size:128;index" json:"reporter"`
	SprintID       *string        `gorm:"size:64;index" json:"sprint_id,omitempty"`

	TimeLogs        TimeLogs `gorm:"type:jsonb;not null;default:'[]'" json:"time_logs"`
	TotalTimeLogged int64    `gorm:"not null;default:0" json:"total_time_logged"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName задаёт имя таблицы.
func (Ticket) TableName() string { return "tickets" }

// Sprint - ограниченная итерация внутри проекта.
type Sprint struct {
	ID           uint64    `gorm:"primaryKey" json:"-"`
	SprintID     string    `gorm:"size:64;uniqueIndex;not null" json:"sprint_id"`
	ProjectID    string    `gorm:"size:64;index;not null" json:"project_id"`
	PartnerID    string    `gorm:"size:64" json:"partner_id,omitempty"`
	SprintNumber int       `gorm:"not null" json:"sprint_number"`
	SprintName   string    `gorm:"size:128;not null" json:"sprint_name"`
	StartDate    time.Time `gorm:"not null" json:"start_date"`
	EndDate      time.Time `gorm:"not null" json:"end_date"`
	IsActive     bool      `gorm:"not null;default:false" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName задаёт имя таблицы.
func (Sprint) TableName() string { return "sprints" }

// Status возвращает производный статус спринта на момент now.
func (s *Sprint) Status(now time.Time) string {
	switch {
	case s.IsActive:
		return SprintStatusActive
	case s.EndDate.Before(now):
		return SprintStatusCompleted
	default:
		return SprintStatusPlanned
	}
}

// WindowContains сообщает, попадает ли now в окно [StartDate, EndDate].
func (s *Sprint) WindowContains(now time.Time) bool {
	return !now.Before(s.StartDate) && !now.After(s.EndDate)
}

// Project - проект; фабрике тикетов нужны partner_id, archived и конвенции.
type Project struct {
	ID        string `gorm:"primaryKey;size:64" json:"id"`
	PartnerID string `gorm:"size:64;index" json:"partner_id,omitempty"`
	Name      string `gorm:"size:128;not null" json:"name"`
	Archived  bool   `gorm:"not null;default:false" json:"archived"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName задаёт имя таблицы.
func (Project) TableName() string { return "projects" }

// Convention - маппинг типа тикета на короткий суффикс ключа внутри проекта.
type Convention struct {
	ID        uint64 `gorm:"primaryKey" json:"-"`
	ProjectID string `gorm:"size:64;not null;uniqueIndex:idx_conventions_project_type" json:"project_id"`
	Type      string `gorm:"size:32;not null;uniqueIndex:idx_conventions_project_type" json:"type"`
	Suffix    string `gorm:"size:16;not null" json:"suffix"`
}

// TableName задаёт имя таблицы.
func (Convention) TableName() string { return "conventions" }

// AccessGrant - грант доступа пользователя к scope (партнёр и/или проект).
// Читается как внешние данные, сервис его не мутирует.
type AccessGrant struct {
	ID         uint64 `gorm:"primaryKey" json:"-"`
	GrantID    string `gorm:"size:64;uniqueIndex" json:"grant_id"`
	UserID     string `gorm:"size:128;index;not null" json:"user_id"`
	PartnerID  string `gorm:"size:64" json:"partner_id,omitempty"`
	ProjectID  string `gorm:"size:64" json:"project_id,omitempty"`
	AccessType string `gorm:"size:32" json:"access_type"`
	Status     string `gorm:"size:32;not null" json:"status"`
}

// TableName задаёт имя таблицы.
func (AccessGrant) TableName() string { return "access_grants" }

// NormalizeID приводит идентификатор проекта/партнёра к каноническому виду.
// Исторически встречаются и UUID, и legacy hex фиксированной ширины; после
// нормализации дальше по коду живёт одно представление.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// CounterKey строит ключ счётчика для пары (проект, тип).
func CounterKey(projectID, ticketType string) string {
	return NormalizeID(projectID) + "_" + strings.ToUpper(strings.TrimSpace(ticketType))
}
