package eventhandler

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON POINTS EARNED HANDLER
// Держит Redis-рейтинг в согласии с журналом начислений: на каждое
// начисление пересчитывает сумму студента из журнала и выставляет её в
// sorted set. Рейтинг best-effort - при сбое истина остаётся в журнале,
// и следующее начисление её дотащит.
// ═══════════════════════════════════════════════════════════════════════════

// OnPointsEarnedHandler обновляет рейтинг по событиям начисления.
type OnPointsEarnedHandler struct {
	pointRepo   gamification.PointEventRepository
	leaderboard gamification.Leaderboard
	log         *logger.Logger
	timeout     time.Duration
}

// NewOnPointsEarnedHandler создаёт обработчик.
func NewOnPointsEarnedHandler(
	pointRepo gamification.PointEventRepository,
	leaderboard gamification.Leaderboard,
	log *logger.Logger,
) *OnPointsEarnedHandler {
	return &OnPointsEarnedHandler{
		pointRepo:   pointRepo,
		leaderboard: leaderboard,
		log:         log,
		timeout:     2 * time.Second,
	}
}

// Subscribe подписывает обработчик на начисления.
func (h *OnPointsEarnedHandler) Subscribe(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventPointsEarned, h.handle)
}

// handle обрабатывает одно начисление.
func (h *OnPointsEarnedHandler) handle(event shared.Event) error {
	if h.leaderboard == nil {
		return nil
	}

	payload := event.Payload()
	studentID, _ := payload["student_id"].(string)
	if studentID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	// Сумму берём из журнала, а не из события: журнал - источник истины.
	total, err := h.pointRepo.TotalByStudent(ctx, shared.StudentID(studentID))
	if err != nil {
		if h.log != nil {
			h.log.Warn("point total recompute failed", logger.StudentID(studentID), logger.Err(err))
		}
		return nil
	}

	if err := h.leaderboard.UpdateScore(ctx, shared.StudentID(studentID), total); err != nil && h.log != nil {
		h.log.Warn("leaderboard update failed", logger.StudentID(studentID), logger.Err(err))
	}

	return nil
}
