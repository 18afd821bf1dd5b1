package store

import (
	"context"
	"testing"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/database"
	"autoeda/backend/go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestUsers(t *testing.T) {
	s := NewStore(newTestDB(t))

	u := &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "x"}
	require.NoError(t, s.CreateUser(u))

	got, err := s.GetUserByEmail("a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = s.GetUserByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)

	_, err = s.GetUserByEmail("b@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.CreateUser(&models.User{ID: "u2", Email: "a@example.com", PasswordHash: "y"}))
}

func TestDatasets(t *testing.T) {
	s := NewStore(newTestDB(t))

	require.NoError(t, s.CreateDataset(&models.Dataset{ID: "d1", OriginalName: "x.csv", Ext: ".csv", Rows: 3, Cols: 2}))
	ds, err := s.GetDataset("d1")
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Rows)

	require.NoError(t, s.DeleteDataset("d1"))
	assert.ErrorIs(t, s.DeleteDataset("d1"), ErrNotFound)
	_, err = s.GetDataset("d1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLJobStoreForwardOnly(t *testing.T) {
	ctx := context.Background()
	js := NewSQLJobStore(newTestDB(t))

	require.NoError(t, js.Create(ctx, &models.JobRecord{ID: "j1", DatasetID: "d", Status: models.JobStatusQueued, EnqueuedAt: time.Now().UTC()}))

	require.NoError(t, js.Advance(ctx, "j1", JobUpdate{Status: models.JobStatusStarted}))
	require.NoError(t, js.Advance(ctx, "j1", JobUpdate{Status: models.JobStatusFinished, Result: datatypes.JSON(`{"pptx_path":"r.pptx"}`)}))

	err := js.Advance(ctx, "j1", JobUpdate{Status: models.JobStatusStarted})
	assert.ErrorIs(t, err, ErrStaleStatus)

	job, err := js.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFinished, job.Status)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.EndedAt)
	assert.JSONEq(t, `{"pptx_path":"r.pptx"}`, string(job.Result))

	_, err = js.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, js.Advance(ctx, "missing", JobUpdate{Status: models.JobStatusStarted}), ErrNotFound)
}

func TestApplyTerminalStates(t *testing.T) {
	job := &models.JobRecord{Status: models.JobStatusQueued}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, apply(job, JobUpdate{Status: models.JobStatusFailed, Error: "boom", At: at}))
	assert.Equal(t, "boom", job.Error)
	assert.Equal(t, at, *job.EndedAt)
	assert.Nil(t, job.StartedAt)

	assert.ErrorIs(t, apply(job, JobUpdate{Status: models.JobStatusFinished}), ErrStaleStatus)
}
