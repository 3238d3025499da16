package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/internal/domain/student"
)

type fakeProfileStore struct {
	profiles map[shared.StudentID]*student.Profile
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[shared.StudentID]*student.Profile)}
}

func (f *fakeProfileStore) Save(ctx context.Context, profile *student.Profile) error {
	copied := *profile
	f.profiles[profile.ID] = &copied
	return nil
}

func (f *fakeProfileStore) FindByID(ctx context.Context, id shared.StudentID) (*student.Profile, error) {
	profile, ok := f.profiles[id]
	if !ok {
		return nil, shared.ErrProfileNotFound
	}
	return profile, nil
}

func TestUpsertProfile_CreatesProfile(t *testing.T) {
	store := newFakeProfileStore()
	handler := NewUpsertProfileHandler(store, nil)

	result, err := handler.Handle(context.Background(), UpsertProfileCommand{
		StudentID:   "student-1",
		DisplayName: "Aizere",
		Timezone:    "Asia/Almaty",
	})

	require.NoError(t, err)
	assert.Equal(t, "Aizere", result.Profile.DisplayName)

	saved, err := store.FindByID(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Almaty", saved.Timezone)
	assert.Equal(t, "Asia/Almaty", saved.Location().String())
}

func TestUpsertProfile_UpdateKeepsCreatedAt(t *testing.T) {
	store := newFakeProfileStore()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	original, err := student.NewProfile("student-1", "Aizere", "UTC", created)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), original))

	handler := NewUpsertProfileHandler(store, nil)
	_, err = handler.Handle(context.Background(), UpsertProfileCommand{
		StudentID:   "student-1",
		DisplayName: "Aizere K.",
		Timezone:    "Asia/Almaty",
	})
	require.NoError(t, err)

	saved, err := store.FindByID(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, created, saved.CreatedAt)
	assert.Equal(t, "Aizere K.", saved.DisplayName)
	assert.True(t, saved.UpdatedAt.After(created))
}

func TestUpsertProfile_RejectsEmptyStudent(t *testing.T) {
	handler := NewUpsertProfileHandler(newFakeProfileStore(), nil)

	_, err := handler.Handle(context.Background(), UpsertProfileCommand{StudentID: ""})

	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpsertProfile_UnknownTimezoneFallsBackToUTC(t *testing.T) {
	store := newFakeProfileStore()
	handler := NewUpsertProfileHandler(store, nil)

	result, err := handler.Handle(context.Background(), UpsertProfileCommand{
		StudentID: "student-1",
		Timezone:  "Mars/Olympus",
	})

	require.NoError(t, err)
	assert.Equal(t, time.UTC, result.Profile.Location())
}
