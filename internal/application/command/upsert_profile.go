package command

import (
	"context"
	"fmt"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/internal/domain/student"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPSERT PROFILE COMMAND
// Регистрация или обновление профиля студента: имя для рейтингов и
// таймзона - граница календарного дня для стриков.
// ══════════════════════════════════════════════════════════════════════════════

// UpsertProfileCommand содержит параметры профиля.
type UpsertProfileCommand struct {
	// StudentID - идентификатор студента.
	StudentID string

	// DisplayName - имя для отображения.
	DisplayName string

	// Timezone - имя таймзоны IANA; пустое значение означает UTC.
	Timezone string
}

// Validate проверяет команду.
func (c UpsertProfileCommand) Validate() error {
	if _, err := shared.NewStudentID(c.StudentID); err != nil {
		return fmt.Errorf("upsert_profile: %w", err)
	}
	return nil
}

// UpsertProfileResult - результат сохранения.
type UpsertProfileResult struct {
	Profile *student.Profile
}

// UpsertProfileHandler обрабатывает UpsertProfileCommand.
type UpsertProfileHandler struct {
	profileRepo student.Repository
	log         *logger.Logger
}

// NewUpsertProfileHandler создаёт обработчик.
func NewUpsertProfileHandler(profileRepo student.Repository, log *logger.Logger) *UpsertProfileHandler {
	return &UpsertProfileHandler{
		profileRepo: profileRepo,
		log:         log,
	}
}

// Handle сохраняет профиль. Существующий профиль обновляется с
// сохранением CreatedAt.
func (h *UpsertProfileHandler) Handle(ctx context.Context, cmd UpsertProfileCommand) (*UpsertProfileResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "UpsertProfile", shared.ErrValidation, "invalid profile", err)
	}

	now := time.Now().UTC()
	studentID := shared.StudentID(cmd.StudentID)

	profile, err := student.NewProfile(studentID, cmd.DisplayName, cmd.Timezone, now)
	if err != nil {
		return nil, shared.WrapError("command", "UpsertProfile", shared.ErrValidation, "invalid profile", err)
	}

	if existing, err := h.profileRepo.FindByID(ctx, studentID); err == nil {
		profile.CreatedAt = existing.CreatedAt
	}

	if err := h.profileRepo.Save(ctx, profile); err != nil {
		return nil, shared.WrapError("command", "UpsertProfile", shared.ErrInvalidState, "profile save failed", err)
	}

	if h.log != nil {
		h.log.Info("profile saved",
			logger.StudentID(cmd.StudentID),
			logger.String("timezone", cmd.Timezone),
		)
	}

	return &UpsertProfileResult{Profile: profile}, nil
}
