// Package student содержит профиль студента. Движок аналитики владеет
// профилем в минимальном объёме: имя для отображения и таймзона -
// источник локальных календарных дней для стриков. Всё остальное про
// студента живёт в других сервисах платформы.
package student

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROFILE
// ══════════════════════════════════════════════════════════════════════════════

// Profile - профиль студента в границах движка аналитики.
type Profile struct {
	// ID - идентификатор студента (внешний, платформенный).
	ID shared.StudentID `json:"id"`

	// DisplayName - имя для отображения в рейтингах и дашборде.
	DisplayName string `json:"display_name"`

	// Timezone - имя таймзоны IANA ("Asia/Almaty"). Пустое или
	// некорректное значение означает UTC.
	Timezone string `json:"timezone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewProfile создаёт профиль. Таймзона не валидируется жёстко: незнакомое
// имя просто означает UTC при вычислениях.
func NewProfile(id shared.StudentID, displayName, timezone string, now time.Time) (*Profile, error) {
	if !id.IsValid() {
		return nil, shared.ErrInvalidStudent
	}

	return &Profile{
		ID:          id,
		DisplayName: displayName,
		Timezone:    timezone,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// Location возвращает *time.Location профиля; UTC, если таймзона пуста
// или неизвестна системе.
func (p *Profile) Location() *time.Location {
	if p == nil {
		return timeutil.DefaultLocation
	}
	return timeutil.LoadLocation(p.Timezone)
}

// SetTimezone обновляет таймзону.
func (p *Profile) SetTimezone(timezone string, now time.Time) {
	p.Timezone = timezone
	p.UpdatedAt = now.UTC()
}

// Repository - порт хранения профилей.
type Repository interface {
	// Save создаёт или обновляет профиль.
	Save(ctx context.Context, profile *Profile) error

	// FindByID возвращает профиль или shared.ErrProfileNotFound.
	FindByID(ctx context.Context, id shared.StudentID) (*Profile, error)
}
