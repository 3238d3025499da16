// Package shared contains common domain types, errors, events, and value objects.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Completion ledger events
	EventCompletionRecorded EventType = "completion.recorded"
	EventLessonCompleted    EventType = "completion.lesson_completed"
	EventCompletionReset    EventType = "completion.reset"

	// Progress events
	EventPointsEarned  EventType = "progress.points_earned"
	EventLevelUp       EventType = "progress.level_up"
	EventStreakUpdated EventType = "progress.streak_updated"

	// Gamification events
	EventBadgeEarned EventType = "gamification.badge_earned"

	// System events
	EventCacheInvalidated EventType = "system.cache_invalidated"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID attaches a correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Completion Events
// ═══════════════════════════════════════════════════════════════════════════

// CompletionRecordedEvent fires on every accepted write to the ledger,
// whether or not it changed the completion status.
type CompletionRecordedEvent struct {
	BaseEvent
	StudentID          string  `json:"student_id"`
	LessonID           string  `json:"lesson_id"`
	CourseID           string  `json:"course_id,omitempty"`
	ProgressPercentage float64 `json:"progress_percentage"`
	FirstCompletion    bool    `json:"first_completion"`
}

// Payload implements Event interface.
func (e CompletionRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":          e.StudentID,
		"lesson_id":           e.LessonID,
		"course_id":           e.CourseID,
		"progress_percentage": e.ProgressPercentage,
		"first_completion":    e.FirstCompletion,
	}
}

// NewCompletionRecordedEvent creates a CompletionRecordedEvent.
func NewCompletionRecordedEvent(studentID, lessonID, courseID string, progress float64, firstCompletion bool) CompletionRecordedEvent {
	return CompletionRecordedEvent{
		BaseEvent:          NewBaseEvent(EventCompletionRecorded, studentID),
		StudentID:          studentID,
		LessonID:           lessonID,
		CourseID:           courseID,
		ProgressPercentage: progress,
		FirstCompletion:    firstCompletion,
	}
}

// LessonCompletedEvent fires exactly once per (student, lesson), the first
// time the record reaches 100%.
type LessonCompletedEvent struct {
	BaseEvent
	StudentID        string `json:"student_id"`
	LessonID         string `json:"lesson_id"`
	CourseID         string `json:"course_id,omitempty"`
	TimeSpentMinutes int    `json:"time_spent_minutes"`
}

// Payload implements Event interface.
func (e LessonCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":         e.StudentID,
		"lesson_id":          e.LessonID,
		"course_id":          e.CourseID,
		"time_spent_minutes": e.TimeSpentMinutes,
	}
}

// NewLessonCompletedEvent creates a LessonCompletedEvent.
func NewLessonCompletedEvent(studentID, lessonID, courseID string, timeSpentMinutes int) LessonCompletedEvent {
	return LessonCompletedEvent{
		BaseEvent:        NewBaseEvent(EventLessonCompleted, studentID),
		StudentID:        studentID,
		LessonID:         lessonID,
		CourseID:         courseID,
		TimeSpentMinutes: timeSpentMinutes,
	}
}

// CompletionResetEvent fires on an explicit administrative reset - the only
// sanctioned exception to progress monotonicity.
type CompletionResetEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	LessonID  string `json:"lesson_id"`
	ResetBy   string `json:"reset_by"`
	Reason    string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e CompletionResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"lesson_id":  e.LessonID,
		"reset_by":   e.ResetBy,
		"reason":     e.Reason,
	}
}

// NewCompletionResetEvent creates a CompletionResetEvent.
func NewCompletionResetEvent(studentID, lessonID, resetBy, reason string) CompletionResetEvent {
	return CompletionResetEvent{
		BaseEvent: NewBaseEvent(EventCompletionReset, studentID),
		StudentID: studentID,
		LessonID:  lessonID,
		ResetBy:   resetBy,
		Reason:    reason,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Gamification Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsEarnedEvent fires when a point-earning fact is appended to the log.
type PointsEarnedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	Points    int    `json:"points"`
	NewTotal  int    `json:"new_total"`
	Reason    string `json:"reason"`
	SourceID  string `json:"source_id,omitempty"`
}

// Payload implements Event interface.
func (e PointsEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"points":     e.Points,
		"new_total":  e.NewTotal,
		"reason":     e.Reason,
		"source_id":  e.SourceID,
	}
}

// NewPointsEarnedEvent creates a PointsEarnedEvent.
func NewPointsEarnedEvent(studentID string, points, newTotal int, reason, sourceID string) PointsEarnedEvent {
	return PointsEarnedEvent{
		BaseEvent: NewBaseEvent(EventPointsEarned, studentID),
		StudentID: studentID,
		Points:    points,
		NewTotal:  newTotal,
		Reason:    reason,
		SourceID:  sourceID,
	}
}

// LevelUpEvent fires when the recomputed level exceeds the previous one.
type LevelUpEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	Points    int    `json:"points"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"points":     e.Points,
	}
}

// NewLevelUpEvent creates a LevelUpEvent.
func NewLevelUpEvent(studentID string, oldLevel, newLevel, points int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, studentID),
		StudentID: studentID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		Points:    points,
	}
}

// BadgeEarnedEvent fires exactly once per (student, badge type).
type BadgeEarnedEvent struct {
	BaseEvent
	StudentID string `json:"student_id"`
	Badge     string `json:"badge"`
	Bonus     int    `json:"bonus"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"badge":      e.Badge,
		"bonus":      e.Bonus,
	}
}

// NewBadgeEarnedEvent creates a BadgeEarnedEvent.
func NewBadgeEarnedEvent(studentID, badge string, bonus int) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent: NewBaseEvent(EventBadgeEarned, studentID),
		StudentID: studentID,
		Badge:     badge,
		Bonus:     bonus,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
