package query

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Рейтинг студентов по очкам. Читается из Redis sorted set; рейтинг
// best-effort и не является источником истины - истина в журнале
// начислений.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery содержит параметры запроса.
type GetLeaderboardQuery struct {
	// Limit - сколько позиций вернуть (по умолчанию 10, максимум 100).
	Limit int

	// StudentID - если задан, ответ дополняется позицией этого студента.
	StudentID string
}

// Validate проверяет и нормализует параметры.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if q.StudentID != "" {
		if _, err := shared.NewStudentID(q.StudentID); err != nil {
			return err
		}
	}
	return nil
}

// LeaderboardRowDTO - одна строка рейтинга с именем студента.
type LeaderboardRowDTO struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"student_id"`
	DisplayName string `json:"display_name,omitempty"`
	TotalPoints int    `json:"total_points"`
	Level       int    `json:"level"`
}

// GetLeaderboardResult содержит результат.
type GetLeaderboardResult struct {
	// Rows - верх рейтинга.
	Rows []LeaderboardRowDTO `json:"rows"`

	// Me - позиция запрошенного студента (может быть за пределами Rows).
	Me *LeaderboardRowDTO `json:"me,omitempty"`

	// GeneratedAt - момент выборки.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запрос рейтинга.
type GetLeaderboardHandler struct {
	leaderboard gamification.Leaderboard
	profileRepo student.Repository
	curve       gamification.LevelCurve
}

// NewGetLeaderboardHandler создаёт обработчик. profileRepo может быть nil.
func NewGetLeaderboardHandler(
	leaderboard gamification.Leaderboard,
	profileRepo student.Repository,
	curve gamification.LevelCurve,
) *GetLeaderboardHandler {
	if curve == (gamification.LevelCurve{}) {
		curve = gamification.DefaultLevelCurve()
	}
	return &GetLeaderboardHandler{
		leaderboard: leaderboard,
		profileRepo: profileRepo,
		curve:       curve,
	}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, "invalid query", err)
	}

	entries, err := h.leaderboard.Top(ctx, query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrServiceUnavailable, "leaderboard unavailable", err)
	}

	result := &GetLeaderboardResult{
		Rows:        make([]LeaderboardRowDTO, 0, len(entries)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, entry := range entries {
		result.Rows = append(result.Rows, h.buildRow(ctx, entry))
	}

	if query.StudentID != "" {
		if entry, err := h.leaderboard.Rank(ctx, shared.StudentID(query.StudentID)); err == nil && entry != nil {
			row := h.buildRow(ctx, *entry)
			result.Me = &row
		}
	}

	return result, nil
}

// buildRow дополняет строку рейтинга именем и уровнем.
func (h *GetLeaderboardHandler) buildRow(ctx context.Context, entry gamification.LeaderboardEntry) LeaderboardRowDTO {
	row := LeaderboardRowDTO{
		Rank:        entry.Rank,
		StudentID:   entry.StudentID.String(),
		TotalPoints: entry.TotalPoints,
		Level:       h.curve.LevelForPoints(entry.TotalPoints),
	}

	if h.profileRepo != nil {
		if profile, err := h.profileRepo.FindByID(ctx, entry.StudentID); err == nil {
			row.DisplayName = profile.DisplayName
		}
	}

	return row
}
