package completion

import (
	"context"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// UpsertResult - результат идемпотентного апсерта в журнал.
type UpsertResult struct {
	// Record - состояние записи после слияния.
	Record *CompletionRecord

	// Outcome - что именно изменил этот отчёт.
	Outcome Outcome
}

// Hierarchy - снимок принадлежности урока, передаваемый при записи.
// Пустые поля означают неразрешимую ссылку.
type Hierarchy struct {
	ModuleID shared.ModuleID
	CourseID shared.CourseID
}

// Repository - порт хранилища журнала прохождения.
//
// Upsert обязан быть атомарным на уровне ключа (StudentID, LessonID):
// конкурентные вызовы для одного ключа сериализуются (блокировка строки
// или CAS с повтором), и читатель никогда не видит частично слитую
// запись. Вызовы для разных ключей независимы.
type Repository interface {
	// Upsert применяет отчёт к записи (создавая её при необходимости)
	// и возвращает состояние после слияния.
	Upsert(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID, report Report, hier Hierarchy, now time.Time) (*UpsertResult, error)

	// Get возвращает запись по ключу или shared.ErrCompletionNotFound.
	Get(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) (*CompletionRecord, error)

	// ListByStudent возвращает все записи студента.
	ListByStudent(ctx context.Context, studentID shared.StudentID) ([]*CompletionRecord, error)

	// ListByStudentAndLessons возвращает записи студента для заданного
	// множества уроков (текущая структура курса или модуля).
	ListByStudentAndLessons(ctx context.Context, studentID shared.StudentID, lessonIDs []shared.LessonID) ([]*CompletionRecord, error)

	// Reset выполняет административный сброс записи - единственное
	// санкционированное исключение из монотонности прогресса.
	Reset(ctx context.Context, studentID shared.StudentID, lessonID shared.LessonID) error
}
