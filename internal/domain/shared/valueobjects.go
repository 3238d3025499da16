// Package shared contains common domain types, errors, events, and value objects.
package shared

import (
	"strings"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTIFIERS
// ══════════════════════════════════════════════════════════════════════════════

// StudentID identifies a student. Students are owned by the auth collaborator;
// the engine only keys ledger facts and derived state by this opaque ID.
type StudentID string

// IsValid reports whether the ID is non-empty and well-formed.
func (s StudentID) IsValid() bool {
	id := string(s)
	return len(id) > 0 && len(id) <= 64 && !strings.ContainsAny(id, " \t\n\r")
}

// String returns the string representation.
func (s StudentID) String() string {
	return string(s)
}

// NewStudentID validates and creates a StudentID.
func NewStudentID(id string) (StudentID, error) {
	s := StudentID(strings.TrimSpace(id))
	if !s.IsValid() {
		return "", ErrInvalidStudent
	}
	return s, nil
}

// LessonID identifies a lesson in the content catalog.
type LessonID string

// IsValid reports whether the ID is non-empty and well-formed.
func (l LessonID) IsValid() bool {
	id := string(l)
	return len(id) > 0 && len(id) <= 64 && !strings.ContainsAny(id, " \t\n\r")
}

// String returns the string representation.
func (l LessonID) String() string {
	return string(l)
}

// NewLessonID validates and creates a LessonID.
func NewLessonID(id string) (LessonID, error) {
	l := LessonID(strings.TrimSpace(id))
	if !l.IsValid() {
		return "", NewDomainError("catalog", "Validate", ErrInvalidID, "invalid lesson ID")
	}
	return l, nil
}

// ModuleID identifies a module (a group of lessons) in the catalog.
type ModuleID string

// String returns the string representation.
func (m ModuleID) String() string {
	return string(m)
}

// CourseID identifies a course in the catalog.
type CourseID string

// String returns the string representation.
func (c CourseID) String() string {
	return string(c)
}

// Category is the subject category a course belongs to (e.g. "Marketing").
type Category string

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ══════════════════════════════════════════════════════════════════════════════
// MEASURES
// ══════════════════════════════════════════════════════════════════════════════

// Percentage is a progress value in [0, 100].
type Percentage float64

// IsValid reports whether the value is within [0, 100].
func (p Percentage) IsValid() bool {
	return p >= 0 && p <= 100
}

// Float64 returns the value as float64.
func (p Percentage) Float64() float64 {
	return float64(p)
}

// Clamp returns the value clamped to [0, 100].
func (p Percentage) Clamp() Percentage {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Max returns the larger of two percentages. The ledger merges concurrent
// progress reports with Max, which is commutative and associative.
func (p Percentage) Max(other Percentage) Percentage {
	if other > p {
		return other
	}
	return p
}

// Minutes is a non-negative duration expressed in whole minutes.
type Minutes int

// IsValid reports whether the value is non-negative.
func (m Minutes) IsValid() bool {
	return m >= 0
}

// Int returns the value as int.
func (m Minutes) Int() int {
	return int(m)
}

// Add sums two cumulative time values.
func (m Minutes) Add(delta Minutes) Minutes {
	return m + delta
}

// QuizScore is a quiz result in [0, 100].
type QuizScore int

// IsValid reports whether the score is within [0, 100].
func (q QuizScore) IsValid() bool {
	return q >= 0 && q <= 100
}

// Int returns the score as int.
func (q QuizScore) Int() int {
	return int(q)
}
