package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalSchedule_Next(t *testing.T) {
	s := Every(15 * time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(15*time.Minute), s.Next(now))
	assert.Equal(t, "@every 15m0s", s.String())
}

func TestDailySchedule_NextLaterToday(t *testing.T) {
	s := DailyAt(3, 30)
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)

	next := s.Next(now)

	assert.Equal(t, time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC), next)
}

func TestDailySchedule_NextRollsToTomorrow(t *testing.T) {
	s := DailyAt(3, 30)
	now := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)

	next := s.Next(now)

	assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, time.UTC), next)
}

func TestDailySchedule_ExactTimeRollsOver(t *testing.T) {
	s := DailyAt(3, 30)
	now := time.Date(2026, 3, 10, 3, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 11, 3, 30, 0, 0, time.UTC), s.Next(now))
}

func TestDailySchedule_ClampsOutOfRange(t *testing.T) {
	s := DailyAt(27, 90)

	assert.Equal(t, 0, s.Hour)
	assert.Equal(t, 0, s.Minute)
}

func TestDailySchedule_RespectsLocation(t *testing.T) {
	almaty, err := time.LoadLocation("Asia/Almaty")
	if err != nil {
		t.Skip("tzdata unavailable")
	}

	s := DailyAt(3, 30)
	now := time.Date(2026, 3, 10, 1, 0, 0, 0, almaty)

	next := s.Next(now)

	assert.Equal(t, almaty, next.Location())
	assert.Equal(t, 3, next.Hour())
}
