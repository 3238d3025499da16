// Package eventhandler содержит обработчики доменных событий.
package eventhandler

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON COMPLETION RECORDED HANDLER
// Реагирует на события журнала прохождения:
// 1. Сбрасывает кеш производного прогресса затронутой пары (студент, курс)
// 2. На сброс записи - сбрасывает весь кеш студента
//
// Кеш никогда не является источником истины, поэтому сбой инвалидации
// не фатален: запись с ограниченным TTL истечёт сама.
// ═══════════════════════════════════════════════════════════════════════════

// OnCompletionRecordedHandler инвалидирует кеш прогресса по событиям записи.
type OnCompletionRecordedHandler struct {
	cache progress.Cache
	log   *logger.Logger

	// timeout ограничивает обращение к кешу из обработчика события.
	timeout time.Duration
}

// NewOnCompletionRecordedHandler создаёт обработчик.
func NewOnCompletionRecordedHandler(cache progress.Cache, log *logger.Logger) *OnCompletionRecordedHandler {
	return &OnCompletionRecordedHandler{
		cache:   cache,
		log:     log,
		timeout: 2 * time.Second,
	}
}

// Subscribe подписывает обработчик на события журнала.
func (h *OnCompletionRecordedHandler) Subscribe(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventCompletionRecorded, h.handle); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventCompletionReset, h.handle)
}

// handle обрабатывает одно событие.
func (h *OnCompletionRecordedHandler) handle(event shared.Event) error {
	if h.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	payload := event.Payload()
	studentID, _ := payload["student_id"].(string)
	if studentID == "" {
		return nil
	}

	var err error
	switch event.EventType() {
	case shared.EventCompletionRecorded:
		courseID, _ := payload["course_id"].(string)
		if courseID == "" {
			// Висячая ссылка: курс неизвестен, сбрасываем всё по студенту.
			err = h.cache.InvalidateStudent(ctx, shared.StudentID(studentID))
		} else {
			err = h.cache.InvalidateCourseProgress(ctx, shared.StudentID(studentID), shared.CourseID(courseID))
		}
	case shared.EventCompletionReset:
		err = h.cache.InvalidateStudent(ctx, shared.StudentID(studentID))
	}

	if err != nil && h.log != nil {
		h.log.Warn("progress cache invalidation failed",
			logger.StudentID(studentID),
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}

	// Сбой кеша не должен ронять остальных подписчиков.
	return nil
}
