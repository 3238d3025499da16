package progress

import (
	"sort"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CATEGORY PERFORMANCE
// ══════════════════════════════════════════════════════════════════════════════

// CourseSummary - вход категорийной агрегации: один зачисленный курс
// студента со свёрнутым прогрессом и результатами квизов.
type CourseSummary struct {
	CourseID         shared.CourseID
	Category         shared.Category
	Percentage       float64
	Completed        bool
	TimeSpentMinutes int

	// QuizScoreSum / QuizScoreCount - сумма и количество лучших
	// результатов квизов по урокам курса (для среднего балла).
	QuizScoreSum   int
	QuizScoreCount int
}

// CategoryPerformance - сводка по одной категории курсов студента.
// Воспроизводима байт-в-байт из текущего состояния журнала, каталога и
// зачислений: никаких скрытых счётчиков, порядок результата фиксирован.
type CategoryPerformance struct {
	// StudentID - идентификатор студента.
	StudentID shared.StudentID `json:"student_id"`

	// Category - категория курсов.
	Category shared.Category `json:"category"`

	// AverageProgress - простое среднее процентов прохождения курсов
	// категории. Намеренно не взвешено по размеру курса: метрика
	// стабильна при изменении количества уроков в курсе.
	AverageProgress float64 `json:"average_progress"`

	// CompletedCourses - завершено курсов в категории.
	CompletedCourses int `json:"completed_courses"`

	// TotalCourses - всего зачислений в категории.
	TotalCourses int `json:"total_courses"`

	// TotalStudyTimeMinutes - суммарное время по курсам категории.
	TotalStudyTimeMinutes int `json:"total_study_time_minutes"`

	// AverageScore - средний балл квизов, nil если квизов не было.
	AverageScore *float64 `json:"average_score,omitempty"`
}

// ComputeCategoryPerformance группирует курсы студента по категориям.
// Категории без зачислений в результате отсутствуют - нулевых строк нет.
// Результат отсортирован по имени категории для детерминизма.
func ComputeCategoryPerformance(studentID shared.StudentID, courses []CourseSummary) []CategoryPerformance {
	type bucket struct {
		progressSum float64
		completed   int
		total       int
		timeSpent   int
		scoreSum    int
		scoreCount  int
	}

	buckets := make(map[shared.Category]*bucket)
	for _, c := range courses {
		b, ok := buckets[c.Category]
		if !ok {
			b = &bucket{}
			buckets[c.Category] = b
		}
		b.progressSum += c.Percentage
		b.total++
		if c.Completed {
			b.completed++
		}
		b.timeSpent += c.TimeSpentMinutes
		b.scoreSum += c.QuizScoreSum
		b.scoreCount += c.QuizScoreCount
	}

	result := make([]CategoryPerformance, 0, len(buckets))
	for category, b := range buckets {
		perf := CategoryPerformance{
			StudentID:             studentID,
			Category:              category,
			AverageProgress:       b.progressSum / float64(b.total),
			CompletedCourses:      b.completed,
			TotalCourses:          b.total,
			TotalStudyTimeMinutes: b.timeSpent,
		}
		if b.scoreCount > 0 {
			avg := float64(b.scoreSum) / float64(b.scoreCount)
			perf.AverageScore = &avg
		}
		result = append(result, perf)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Category < result[j].Category
	})

	return result
}
