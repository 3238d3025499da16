// Package catalog описывает read-only интерфейс к внешнему каталогу контента:
// иерархию урок -> модуль -> курс -> категория и окна зачисления.
// Движок аналитики не владеет контентом; он обязан переживать ссылки,
// которые больше не разрешаются (урок удалён из курса), считая их
// нулевым вкладом, а не фатальной ошибкой.
package catalog

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HIERARCHY
// ══════════════════════════════════════════════════════════════════════════════

// HierarchyRef - снимок принадлежности урока в текущей структуре каталога.
type HierarchyRef struct {
	// LessonID - идентификатор урока.
	LessonID shared.LessonID

	// ModuleID - модуль, которому принадлежит урок.
	ModuleID shared.ModuleID

	// CourseID - курс, которому принадлежит модуль.
	CourseID shared.CourseID

	// Category - категория курса (например, "Marketing").
	Category shared.Category
}

// IsResolved возвращает true, если ссылка разрешилась до курса.
func (h HierarchyRef) IsResolved() bool {
	return h.CourseID != ""
}

// ══════════════════════════════════════════════════════════════════════════════
// ENROLLMENT WINDOW
// ══════════════════════════════════════════════════════════════════════════════

// EnrollmentWindow - окно зачисления студента на курс. Принадлежит внешнему
// коллаборатору; после создания неизменяемо, кроме явного продления.
type EnrollmentWindow struct {
	// StudentID - идентификатор студента.
	StudentID shared.StudentID

	// CourseID - идентификатор курса.
	CourseID shared.CourseID

	// EnrolledAt - дата зачисления.
	EnrolledAt time.Time

	// TargetDurationDays - целевая длительность прохождения в днях.
	// Значение <= 0 - некорректные данные зачисления: пейсинг трактует
	// их как "курс уже должен быть завершён".
	TargetDurationDays int
}

// IsValid проверяет корректность окна.
func (e EnrollmentWindow) IsValid() bool {
	return e.StudentID.IsValid() && e.CourseID != "" && !e.EnrolledAt.IsZero()
}

// Extend возвращает копию окна с продлённой целевой длительностью.
// Единственная разрешённая мутация окна.
func (e EnrollmentWindow) Extend(extraDays int) EnrollmentWindow {
	if extraDays > 0 {
		e.TargetDurationDays += extraDays
	}
	return e
}

// ══════════════════════════════════════════════════════════════════════════════
// RESOLVER PORT
// ══════════════════════════════════════════════════════════════════════════════

// Resolver - порт к каталогу контента. Реализация обязана ограничивать
// время каждого вызова и деградировать до shared.ErrLessonNotFound /
// shared.ErrUnresolvable вместо зависания: агрегация никогда не ждёт
// каталог дольше таймаута.
type Resolver interface {
	// ResolveLesson возвращает принадлежность урока в текущей структуре
	// каталога или shared.ErrLessonNotFound.
	ResolveLesson(ctx context.Context, lessonID shared.LessonID) (*HierarchyRef, error)

	// ListLessonsForModule возвращает текущий список уроков модуля.
	ListLessonsForModule(ctx context.Context, moduleID shared.ModuleID) ([]shared.LessonID, error)

	// ListLessonsForCourse возвращает текущий список уроков курса.
	ListLessonsForCourse(ctx context.Context, courseID shared.CourseID) ([]shared.LessonID, error)

	// GetEnrollment возвращает окно зачисления или shared.ErrEnrollmentNotFound.
	GetEnrollment(ctx context.Context, studentID shared.StudentID, courseID shared.CourseID) (*EnrollmentWindow, error)

	// ListEnrollments возвращает все окна зачисления студента.
	ListEnrollments(ctx context.Context, studentID shared.StudentID) ([]*EnrollmentWindow, error)

	// GetCourseCategory возвращает категорию курса или shared.ErrCourseNotFound.
	GetCourseCategory(ctx context.Context, courseID shared.CourseID) (shared.Category, error)
}
