// Package catalog implements the HTTP client for the content catalog service.
// The catalog owns the lesson -> module -> course -> category hierarchy and
// the enrollment windows; the analytics engine only reads them.
package catalog

import (
	"fmt"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// API ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the standard envelope of the catalog API.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// APIErrorDTO is the error body the catalog returns on 4xx/5xx.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return fmt.Sprintf("catalog api error %s: %s", e.Code, e.Message)
}

// IsNotFound reports whether the error is a 404.
func (e *APIErrorDTO) IsNotFound() bool {
	return e.Status == 404 || e.Code == "NOT_FOUND"
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG DTOs
// ══════════════════════════════════════════════════════════════════════════════

// LessonDTO describes a lesson's place in the current catalog structure.
type LessonDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	ModuleID string `json:"module_id"`
	CourseID string `json:"course_id"`
	Category string `json:"category"`
}

// ModuleDTO describes a module and its current lesson list.
type ModuleDTO struct {
	ID        string   `json:"id"`
	Title     string   `json:"title,omitempty"`
	CourseID  string   `json:"course_id"`
	LessonIDs []string `json:"lesson_ids"`
}

// CourseDTO describes a course, its category and its current lesson list.
type CourseDTO struct {
	ID        string   `json:"id"`
	Title     string   `json:"title,omitempty"`
	Category  string   `json:"category"`
	LessonIDs []string `json:"lesson_ids"`
}

// EnrollmentDTO describes a student's enrollment window on a course.
type EnrollmentDTO struct {
	StudentID          string    `json:"student_id"`
	CourseID           string    `json:"course_id"`
	EnrolledAt         time.Time `json:"enrolled_at"`
	TargetDurationDays int       `json:"target_duration_days"`
}
