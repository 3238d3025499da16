package gamification

import (
	"time"

	"github.com/google/uuid"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BADGES (правила и награды)
// ══════════════════════════════════════════════════════════════════════════════

// BadgeType - стабильный идентификатор бейджа.
type BadgeType string

const (
	// BadgeFirstLesson - завершён первый урок.
	BadgeFirstLesson BadgeType = "first_lesson"

	// BadgeCourseFinisher - завершён первый курс целиком.
	BadgeCourseFinisher BadgeType = "course_finisher"

	// BadgeFiveCourses - завершено пять курсов.
	BadgeFiveCourses BadgeType = "five_courses"

	// BadgeWeekStreak - серия из 7 активных дней подряд.
	BadgeWeekStreak BadgeType = "week_streak"

	// BadgeMonthStreak - серия из 30 активных дней подряд.
	BadgeMonthStreak BadgeType = "month_streak"

	// BadgeQuizAce - квиз сдан на 100 баллов.
	BadgeQuizAce BadgeType = "quiz_ace"

	// BadgePointsCollector - накоплена тысяча очков.
	BadgePointsCollector BadgeType = "points_collector"
)

// Badge - заработанный студентом бейдж. EarnedAt неизменяем после
// присвоения: повторное выполнение правила второго экземпляра не создаёт
// и дату не сдвигает.
type Badge struct {
	ID        uuid.UUID        `json:"id"`
	StudentID shared.StudentID `json:"student_id"`
	Type      BadgeType        `json:"type"`
	EarnedAt  time.Time        `json:"earned_at"`
}

// NewBadge создаёт награду.
func NewBadge(studentID shared.StudentID, badgeType BadgeType, now time.Time) *Badge {
	return &Badge{
		ID:        uuid.New(),
		StudentID: studentID,
		Type:      badgeType,
		EarnedAt:  now.UTC(),
	}
}

// DerivedState - срез производного состояния студента, против которого
// оцениваются правила бейджей. Собирается фасадом из журнала завершений,
// стрика и журнала очков; правила сами ничего не загружают.
type DerivedState struct {
	CompletedLessons  int
	CompletedCourses  int
	LongestStreakDays int
	TotalPoints       int
	BestQuizScore     int
}

// BadgeDefinition - правило бейджа: предикат над производным состоянием
// плюс бонусные очки за открытие.
type BadgeDefinition struct {
	Type        BadgeType
	Title       string
	Description string

	// BonusPoints начисляются в журнал очков при открытии бейджа
	// (причина badge_unlocked, источник - тип бейджа).
	BonusPoints int

	// Check возвращает true, когда правило выполнено.
	Check func(s DerivedState) bool
}

// DefaultBadgeDefinitions - встроенный набор правил. Порядок фиксирован:
// оценка детерминирована относительно одного и того же состояния.
func DefaultBadgeDefinitions() []BadgeDefinition {
	return []BadgeDefinition{
		{
			Type:        BadgeFirstLesson,
			Title:       "First Steps",
			Description: "Complete your first lesson",
			BonusPoints: 10,
			Check:       func(s DerivedState) bool { return s.CompletedLessons >= 1 },
		},
		{
			Type:        BadgeCourseFinisher,
			Title:       "Course Finisher",
			Description: "Complete a full course",
			BonusPoints: 100,
			Check:       func(s DerivedState) bool { return s.CompletedCourses >= 1 },
		},
		{
			Type:        BadgeFiveCourses,
			Title:       "Serial Learner",
			Description: "Complete five courses",
			BonusPoints: 300,
			Check:       func(s DerivedState) bool { return s.CompletedCourses >= 5 },
		},
		{
			Type:        BadgeWeekStreak,
			Title:       "Week Warrior",
			Description: "Stay active seven days in a row",
			BonusPoints: 50,
			Check:       func(s DerivedState) bool { return s.LongestStreakDays >= 7 },
		},
		{
			Type:        BadgeMonthStreak,
			Title:       "Iron Habit",
			Description: "Stay active thirty days in a row",
			BonusPoints: 250,
			Check:       func(s DerivedState) bool { return s.LongestStreakDays >= 30 },
		},
		{
			Type:        BadgeQuizAce,
			Title:       "Quiz Ace",
			Description: "Score 100 on a quiz",
			BonusPoints: 50,
			Check:       func(s DerivedState) bool { return s.BestQuizScore >= 100 },
		},
		{
			Type:        BadgePointsCollector,
			Title:       "Points Collector",
			Description: "Accumulate 1000 points",
			BonusPoints: 0,
			Check:       func(s DerivedState) bool { return s.TotalPoints >= 1000 },
		},
	}
}

// EvaluateBadges возвращает бейджи, правила которых выполнены, но которые
// студент ещё не заработал. Уже имеющиеся не переоцениваются - награда
// неизменяема.
func EvaluateBadges(
	studentID shared.StudentID,
	state DerivedState,
	earned []*Badge,
	definitions []BadgeDefinition,
	now time.Time,
) []*Badge {
	have := make(map[BadgeType]bool, len(earned))
	for _, b := range earned {
		have[b.Type] = true
	}

	var newBadges []*Badge
	for _, def := range definitions {
		if have[def.Type] {
			continue
		}
		if def.Check != nil && def.Check(state) {
			newBadges = append(newBadges, NewBadge(studentID, def.Type, now))
		}
	}
	return newBadges
}

// DefinitionFor возвращает правило по типу бейджа.
func DefinitionFor(badgeType BadgeType, definitions []BadgeDefinition) (BadgeDefinition, bool) {
	for _, def := range definitions {
		if def.Type == badgeType {
			return def, true
		}
	}
	return BadgeDefinition{}, false
}
