package query

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET GAMIFICATION QUERY
// Очки, уровень и бейджи студента. Профиль целиком производен от
// append-only журнала начислений: пересборка всегда даёт ту же сумму.
// ══════════════════════════════════════════════════════════════════════════════

// GetGamificationQuery содержит параметры запроса.
type GetGamificationQuery struct {
	// StudentID - идентификатор студента.
	StudentID string

	// IncludeRank - включить позицию в рейтинге.
	IncludeRank bool
}

// Validate проверяет параметры.
func (q GetGamificationQuery) Validate() error {
	_, err := shared.NewStudentID(q.StudentID)
	return err
}

// GetGamificationResult содержит результат.
type GetGamificationResult struct {
	// Profile - геймификационный срез.
	Profile gamification.Profile `json:"profile"`

	// Rank - позиция в рейтинге (если запрошена и доступна).
	Rank *gamification.LeaderboardEntry `json:"rank,omitempty"`

	// GeneratedAt - момент вычисления.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetGamificationHandler обрабатывает запрос геймификации.
type GetGamificationHandler struct {
	pointRepo   gamification.PointEventRepository
	badgeRepo   gamification.BadgeRepository
	leaderboard gamification.Leaderboard
	curve       gamification.LevelCurve
}

// NewGetGamificationHandler создаёт обработчик. leaderboard может быть nil.
func NewGetGamificationHandler(
	pointRepo gamification.PointEventRepository,
	badgeRepo gamification.BadgeRepository,
	leaderboard gamification.Leaderboard,
	curve gamification.LevelCurve,
) *GetGamificationHandler {
	if curve == (gamification.LevelCurve{}) {
		curve = gamification.DefaultLevelCurve()
	}
	return &GetGamificationHandler{
		pointRepo:   pointRepo,
		badgeRepo:   badgeRepo,
		leaderboard: leaderboard,
		curve:       curve,
	}
}

// Handle выполняет запрос.
func (h *GetGamificationHandler) Handle(ctx context.Context, query GetGamificationQuery) (*GetGamificationResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetGamification", shared.ErrValidation, "invalid query", err)
	}

	studentID := shared.StudentID(query.StudentID)

	events, err := h.pointRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetGamification", shared.ErrInvalidState, "point log read failed", err)
	}

	badges, err := h.badgeRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, shared.WrapError("query", "GetGamification", shared.ErrInvalidState, "badge read failed", err)
	}

	result := &GetGamificationResult{
		Profile:     gamification.ComputeProfile(studentID, events, badges, h.curve),
		GeneratedAt: time.Now().UTC(),
	}

	// Рейтинг best-effort: его отсутствие профиль не ломает.
	if query.IncludeRank && h.leaderboard != nil {
		if entry, err := h.leaderboard.Rank(ctx, studentID); err == nil {
			result.Rank = entry
		}
	}

	return result, nil
}
