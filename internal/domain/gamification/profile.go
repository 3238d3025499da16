package gamification

import (
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GAMIFICATION PROFILE (производный срез)
// ══════════════════════════════════════════════════════════════════════════════

// Profile - геймификационный срез студента: очки, уровень, бейджи.
// Полностью производен от журнала начислений и списка наград; хранить
// его незачем - пересборка из журнала даёт тот же результат.
type Profile struct {
	StudentID shared.StudentID `json:"student_id"`

	TotalPoints int `json:"total_points"`

	// Level считается по кривой уровней; минимум 1.
	Level int `json:"level"`

	// PointsToNextLevel - сколько очков осталось до следующего уровня.
	PointsToNextLevel int `json:"points_to_next_level"`

	// ProgressToNextLevel - доля пути до следующего уровня, 0.0-1.0.
	ProgressToNextLevel float64 `json:"progress_to_next_level"`

	Badges []*Badge `json:"badges"`
}

// ComputeProfile сворачивает журнал начислений и награды в профиль.
func ComputeProfile(
	studentID shared.StudentID,
	events []*PointEvent,
	badges []*Badge,
	curve LevelCurve,
) Profile {
	points := TotalPoints(events)

	return Profile{
		StudentID:           studentID,
		TotalPoints:         points,
		Level:               curve.LevelForPoints(points),
		PointsToNextLevel:   curve.PointsToNext(points),
		ProgressToNextLevel: curve.ProgressToNext(points),
		Badges:              badges,
	}
}
