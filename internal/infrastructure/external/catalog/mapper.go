package catalog

import (
	catalogdomain "github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DTO -> DOMAIN MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// Mapper converts catalog API DTOs into domain types.
type Mapper struct{}

// NewMapper creates a new Mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// HierarchyRefFromDTO converts a lesson DTO into a hierarchy reference.
func (m *Mapper) HierarchyRefFromDTO(dto *LessonDTO) *catalogdomain.HierarchyRef {
	return &catalogdomain.HierarchyRef{
		LessonID: shared.LessonID(dto.ID),
		ModuleID: shared.ModuleID(dto.ModuleID),
		CourseID: shared.CourseID(dto.CourseID),
		Category: shared.Category(dto.Category),
	}
}

// EnrollmentFromDTO converts an enrollment DTO into an enrollment window.
func (m *Mapper) EnrollmentFromDTO(dto *EnrollmentDTO) *catalogdomain.EnrollmentWindow {
	return &catalogdomain.EnrollmentWindow{
		StudentID:          shared.StudentID(dto.StudentID),
		CourseID:           shared.CourseID(dto.CourseID),
		EnrolledAt:         dto.EnrolledAt,
		TargetDurationDays: dto.TargetDurationDays,
	}
}

// LessonIDsFromStrings converts raw lesson IDs into domain IDs.
func (m *Mapper) LessonIDsFromStrings(ids []string) []shared.LessonID {
	lessons := make([]shared.LessonID, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		lessons = append(lessons, shared.LessonID(id))
	}
	return lessons
}
