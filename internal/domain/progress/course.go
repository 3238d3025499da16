// Package progress содержит чистые функции агрегации: процент прохождения
// курсов и модулей, пейсинг относительно окна зачисления, стрики по
// календарным дням и сводки по категориям. Все функции детерминированы:
// "сейчас" передаётся явным параметром, состояние журнала - аргументами.
package progress

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED COURSE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// CourseProgress - производный прогресс студента по курсу. Никогда не
// является источником истины: пересчитывается из журнала и текущей
// структуры каталога (кеш допустим только с recompute-on-read).
type CourseProgress struct {
	// StudentID - идентификатор студента.
	StudentID shared.StudentID `json:"student_id"`

	// CourseID - идентификатор курса.
	CourseID shared.CourseID `json:"course_id"`

	// CompletedLessons - завершено уроков из текущей структуры курса.
	CompletedLessons int `json:"completed_lessons"`

	// TotalLessons - всего уроков в текущей структуре курса.
	TotalLessons int `json:"total_lessons"`

	// Percentage - процент прохождения (0-100). При TotalLessons == 0
	// определён как 0 - деления на ноль не существует по построению.
	Percentage float64 `json:"percentage"`

	// TotalTimeSpentMinutes - суммарное время, включая время уроков,
	// удалённых из текущей структуры (историческая сумма).
	TotalTimeSpentMinutes int `json:"total_time_spent_minutes"`
}

// IsCompleted возвращает true, если курс пройден полностью.
func (p CourseProgress) IsCompleted() bool {
	return p.TotalLessons > 0 && p.CompletedLessons >= p.TotalLessons
}

// ComputeCourseProgress сворачивает журнал в прогресс по курсу.
//
// lessonIDs - уроки курса в ТЕКУЩЕЙ структуре каталога; records - записи
// журнала студента. Счётчики уроков считаются только по текущей структуре:
// урок, удалённый из курса после завершения, перестаёт учитываться в
// completed/total (прогресс отражает актуальный курс). Его время при этом
// остаётся в исторической сумме - запись несёт снимок CourseID на момент
// записи. Повторные отчёты по уроку не дают двойного счёта: запись одна
// на ключ (студент, урок).
func ComputeCourseProgress(
	studentID shared.StudentID,
	courseID shared.CourseID,
	lessonIDs []shared.LessonID,
	records []*completion.CompletionRecord,
) CourseProgress {
	inCourse := make(map[shared.LessonID]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		inCourse[id] = true
	}

	result := CourseProgress{
		StudentID:    studentID,
		CourseID:     courseID,
		TotalLessons: len(lessonIDs),
	}

	for _, rec := range records {
		if inCourse[rec.LessonID] {
			if rec.IsCompleted() {
				result.CompletedLessons++
			}
			result.TotalTimeSpentMinutes += rec.TimeSpentMinutes
			continue
		}

		// Урок вне текущей структуры: время учитываем, если снимок
		// принадлежности указывает на этот курс.
		if rec.CourseID == courseID {
			result.TotalTimeSpentMinutes += rec.TimeSpentMinutes
		}
	}

	// Завершённых уроков не может быть больше, чем уроков в структуре.
	if result.CompletedLessons > result.TotalLessons {
		result.CompletedLessons = result.TotalLessons
	}

	if result.TotalLessons > 0 {
		result.Percentage = float64(result.CompletedLessons) / float64(result.TotalLessons) * 100
	}

	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// MODULE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

// ModuleProgress - прогресс по одному модулю курса.
type ModuleProgress struct {
	StudentID             shared.StudentID `json:"student_id"`
	ModuleID              shared.ModuleID  `json:"module_id"`
	CompletedLessons      int              `json:"completed_lessons"`
	TotalLessons          int              `json:"total_lessons"`
	Percentage            float64          `json:"percentage"`
	TotalTimeSpentMinutes int              `json:"total_time_spent_minutes"`
}

// ComputeModuleProgress - тот же алгоритм, что и для курса, но в границах
// множества уроков модуля.
func ComputeModuleProgress(
	studentID shared.StudentID,
	moduleID shared.ModuleID,
	lessonIDs []shared.LessonID,
	records []*completion.CompletionRecord,
) ModuleProgress {
	inModule := make(map[shared.LessonID]bool, len(lessonIDs))
	for _, id := range lessonIDs {
		inModule[id] = true
	}

	result := ModuleProgress{
		StudentID:    studentID,
		ModuleID:     moduleID,
		TotalLessons: len(lessonIDs),
	}

	for _, rec := range records {
		if inModule[rec.LessonID] {
			if rec.IsCompleted() {
				result.CompletedLessons++
			}
			result.TotalTimeSpentMinutes += rec.TimeSpentMinutes
		} else if rec.ModuleID == moduleID {
			result.TotalTimeSpentMinutes += rec.TimeSpentMinutes
		}
	}

	if result.CompletedLessons > result.TotalLessons {
		result.CompletedLessons = result.TotalLessons
	}

	if result.TotalLessons > 0 {
		result.Percentage = float64(result.CompletedLessons) / float64(result.TotalLessons) * 100
	}

	return result
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE PORT
// ══════════════════════════════════════════════════════════════════════════════

// Cache - порт кеша производного прогресса. Кеш - только ускорение:
// промах или ошибка кеша всегда приводят к пересчёту из журнала.
type Cache interface {
	// GetCourseProgress возвращает кешированный прогресс или ошибку промаха.
	GetCourseProgress(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*CourseProgress, error)

	// SetCourseProgress кладёт прогресс в кеш с ограниченным TTL.
	SetCourseProgress(ctx context.Context, p *CourseProgress, ttl time.Duration) error

	// InvalidateCourseProgress сбрасывает кеш пары (студент, курс).
	InvalidateCourseProgress(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) error

	// InvalidateStudent сбрасывает весь кеш студента.
	InvalidateStudent(ctx context.Context, studentID shared.StudentID) error
}
