// Package postgres implements the PostgreSQL persistence layer of the analytics engine.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE COMPLETION RECORDS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create completion ledger
-- Version: 001

-- Completion ledger: one row per (student, lesson). The unique key is the
-- backbone of idempotent merges - concurrent reports for the same pair
-- serialize on this row.
CREATE TABLE IF NOT EXISTS completion_records (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    student_id VARCHAR(64) NOT NULL,
    lesson_id VARCHAR(64) NOT NULL,
    -- Hierarchy snapshot captured at write time. Counts follow the live
    -- catalog; these snapshots keep historical time attributable after
    -- a lesson is removed from its course.
    module_id VARCHAR(64) NOT NULL DEFAULT '',
    course_id VARCHAR(64) NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL DEFAULT 'NOT_STARTED',
    progress_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
    time_spent_minutes INTEGER NOT NULL DEFAULT 0,
    best_quiz_score INTEGER,
    first_started_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP WITH TIME ZONE,
    last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_completion_student_lesson UNIQUE (student_id, lesson_id),
    CONSTRAINT valid_status CHECK (status IN ('NOT_STARTED', 'IN_PROGRESS', 'COMPLETED')),
    CONSTRAINT valid_progress CHECK (progress_percentage >= 0 AND progress_percentage <= 100),
    CONSTRAINT valid_time_spent CHECK (time_spent_minutes >= 0),
    CONSTRAINT valid_quiz_score CHECK (best_quiz_score IS NULL OR (best_quiz_score >= 0 AND best_quiz_score <= 100))
);

CREATE INDEX IF NOT EXISTS idx_completion_student ON completion_records(student_id);
CREATE INDEX IF NOT EXISTS idx_completion_student_course ON completion_records(student_id, course_id);
CREATE INDEX IF NOT EXISTS idx_completion_student_module ON completion_records(student_id, module_id);
CREATE INDEX IF NOT EXISTS idx_completion_last_updated ON completion_records(student_id, last_updated_at);
`

const migration001Down = `
DROP TABLE IF EXISTS completion_records;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE POINT EVENTS AND BADGES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create gamification tables
-- Version: 002

-- Append-only point-event log. Totals and levels are folds over this
-- table, never stored counters. The unique triple makes awarding
-- idempotent: a replayed "lesson completed" transition inserts nothing.
CREATE TABLE IF NOT EXISTS point_events (
    id UUID PRIMARY KEY,
    student_id VARCHAR(64) NOT NULL,
    reason VARCHAR(32) NOT NULL,
    source_id VARCHAR(64) NOT NULL,
    points INTEGER NOT NULL,
    occurred_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_point_event_source UNIQUE (student_id, reason, source_id),
    CONSTRAINT valid_reason CHECK (reason IN ('lesson_completed', 'quiz_passed', 'badge_unlocked')),
    CONSTRAINT valid_points CHECK (points >= 0)
);

CREATE INDEX IF NOT EXISTS idx_point_events_student ON point_events(student_id, occurred_at);

-- Earned badges. earned_at is immutable: the unique key rejects a second
-- award instead of touching the first.
CREATE TABLE IF NOT EXISTS badges (
    id UUID PRIMARY KEY,
    student_id VARCHAR(64) NOT NULL,
    badge_type VARCHAR(32) NOT NULL,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT uq_badge_student_type UNIQUE (student_id, badge_type)
);

CREATE INDEX IF NOT EXISTS idx_badges_student ON badges(student_id, earned_at);
`

const migration002Down = `
DROP TABLE IF EXISTS badges;
DROP TABLE IF EXISTS point_events;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE STUDENT PROFILES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create student profiles
-- Version: 003

-- Minimal profile owned by the analytics engine: display name plus the
-- IANA timezone that anchors streak day boundaries.
CREATE TABLE IF NOT EXISTS student_profiles (
    id VARCHAR(64) PRIMARY KEY,
    display_name VARCHAR(100) NOT NULL DEFAULT '',
    timezone VARCHAR(64) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration003Down = `
DROP TABLE IF EXISTS student_profiles;
`
