package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESET COMPLETION COMMAND
// Административный сброс записи журнала - единственное санкционированное
// исключение из монотонности прогресса. Аудитный след обязателен: кто и
// почему, плюс доменное событие.
// ══════════════════════════════════════════════════════════════════════════════

// ResetCompletionCommand содержит параметры сброса.
type ResetCompletionCommand struct {
	// StudentID - идентификатор студента.
	StudentID string

	// LessonID - идентификатор урока.
	LessonID string

	// ResetBy - кто выполняет сброс (идентификатор администратора).
	ResetBy string

	// Reason - причина сброса (обязательна для аудита).
	Reason string

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет команду.
func (c ResetCompletionCommand) Validate() error {
	if _, err := shared.NewStudentID(c.StudentID); err != nil {
		return fmt.Errorf("reset_completion: %w", err)
	}
	if _, err := shared.NewLessonID(c.LessonID); err != nil {
		return fmt.Errorf("reset_completion: %w", err)
	}
	if c.ResetBy == "" {
		return fmt.Errorf("reset_completion: reset_by: %w", shared.ErrEmptyValue)
	}
	if c.Reason == "" {
		return fmt.Errorf("reset_completion: reason: %w", shared.ErrEmptyValue)
	}
	return nil
}

// ResetCompletionResult - результат сброса.
type ResetCompletionResult struct {
	StudentID string
	LessonID  string
	ResetAt   time.Time
}

// ResetCompletionHandler обрабатывает ResetCompletionCommand.
type ResetCompletionHandler struct {
	completionRepo completion.Repository
	eventPublisher shared.EventPublisher
	log            *logger.Logger
}

// NewResetCompletionHandler создаёт обработчик.
func NewResetCompletionHandler(
	completionRepo completion.Repository,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
) *ResetCompletionHandler {
	return &ResetCompletionHandler{
		completionRepo: completionRepo,
		eventPublisher: eventPublisher,
		log:            log,
	}
}

// Handle выполняет сброс.
func (h *ResetCompletionHandler) Handle(ctx context.Context, cmd ResetCompletionCommand) (*ResetCompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ResetCompletion", shared.ErrValidation, "invalid reset", err)
	}

	studentID := shared.StudentID(cmd.StudentID)
	lessonID := shared.LessonID(cmd.LessonID)

	if err := h.completionRepo.Reset(ctx, studentID, lessonID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrCompletionNotFound
		}
		return nil, shared.WrapError("command", "ResetCompletion", shared.ErrInvalidState, "reset failed", err)
	}

	if h.log != nil {
		h.log.Info("completion record reset",
			logger.StudentID(cmd.StudentID),
			logger.LessonID(cmd.LessonID),
			logger.String("reset_by", cmd.ResetBy),
			logger.String("reason", cmd.Reason),
		)
	}

	event := shared.NewCompletionResetEvent(cmd.StudentID, cmd.LessonID, cmd.ResetBy, cmd.Reason)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	if err := h.eventPublisher.Publish(event); err != nil && h.log != nil {
		h.log.Warn("failed to publish reset event", logger.Err(err))
	}

	return &ResetCompletionResult{
		StudentID: cmd.StudentID,
		LessonID:  cmd.LessonID,
		ResetAt:   time.Now().UTC(),
	}, nil
}
