package gamification

import (
	"context"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// PointEventRepository - порт журнала начислений. Журнал append-only.
type PointEventRepository interface {
	// Append добавляет запись. Если тройка (студент, причина, источник)
	// уже есть в журнале, возвращает shared.ErrPointEventExists и журнал
	// не меняет - повторный переход очков не даёт.
	Append(ctx context.Context, event *PointEvent) error

	// ListByStudent возвращает журнал студента в порядке occurred_at.
	ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*PointEvent, error)

	// TotalByStudent - сумма очков студента (свёртка на стороне хранилища).
	TotalByStudent(ctx context.Context, studentID shared.StudentID) (int, error)
}

// BadgeRepository - порт хранения наград.
type BadgeRepository interface {
	// Award сохраняет награду. Если бейдж этого типа у студента уже
	// есть, возвращает shared.ErrBadgeExists и ничего не меняет.
	Award(ctx context.Context, badge *Badge) error

	// ListByStudent возвращает награды студента в порядке earned_at.
	ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*Badge, error)
}

// Leaderboard - порт рейтинга по очкам. Рейтинг best-effort: ошибка
// обновления логируется и не ломает запись завершения.
type Leaderboard interface {
	// UpdateScore выставляет текущую сумму очков студента.
	UpdateScore(ctx context.Context, studentID shared.StudentID, totalPoints int) error

	// Top возвращает первые limit записей по убыванию очков.
	Top(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Rank возвращает позицию студента (с 1) и его очки.
	Rank(ctx context.Context, studentID shared.StudentID) (*LeaderboardEntry, error)
}

// LeaderboardEntry - одна строка рейтинга.
type LeaderboardEntry struct {
	StudentID   shared.StudentID `json:"student_id"`
	Rank        int              `json:"rank"`
	TotalPoints int              `json:"total_points"`
}
