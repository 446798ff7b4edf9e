package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskflow/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenRunsMigrations(t *testing.T) {
	db := newTestDB(t)

	var version int
	require.NoError(t, db.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentVersion, version)
	require.NoError(t, db.migrate())
}

func TestOpenWithPath(t *testing.T) {
	path := t.TempDir() + "/nested/taskflow.db"
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())
}

func TestTaskRepositoryRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	older := &domain.Task{ID: "t1", OwnerID: "u1", Title: "older", Category: domain.CategoryWork, CreatedAt: base}
	newer := &domain.Task{ID: "t2", OwnerID: "u1", Title: "newer", Category: domain.CategoryStudy, CreatedAt: base.Add(time.Hour)}
	foreign := &domain.Task{ID: "t3", OwnerID: "u2", Title: "foreign", Category: domain.CategoryOther, CreatedAt: base}
	for _, task := range []*domain.Task{older, newer, foreign} {
		_, err := repo.Create(ctx, task)
		require.NoError(t, err)
	}

	tasks, err := repo.ListByOwner(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "t2", tasks[0].ID)
	assert.Equal(t, "t1", tasks[1].ID)
	assert.True(t, tasks[1].CreatedAt.Equal(base))
	assert.Nil(t, tasks[1].CompletedAt)

	done := base.Add(2 * time.Hour)
	older.Completed = true
	older.CompletedAt = &done
	older.XPAwarded = true
	older.PomodoroSessions = 3
	require.NoError(t, repo.Update(ctx, older))

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.True(t, got.XPAwarded)
	assert.Equal(t, 3, got.PomodoroSessions)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(done))

	require.NoError(t, repo.Delete(ctx, "t1"))
	assert.ErrorIs(t, repo.Delete(ctx, "t1"), domain.ErrTaskNotFound)
	assert.ErrorIs(t, repo.Update(ctx, older), domain.ErrTaskNotFound)
	_, err = repo.GetByID(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTaskRepositoryUnknownCategoryReadsAsOther(t *testing.T) {
	db := newTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.Task{ID: "t1", OwnerID: "u1", Title: "legacy", Category: "Garden"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryOther, got.Category)
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{Email: " Ada@Example.com ", PasswordHash: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", byID.Email)

	err = repo.Create(ctx, &domain.User{Email: "ADA@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = repo.GetByID(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestProfileRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)

	require.NoError(t, repo.Upsert(ctx, &domain.Profile{UserID: "u1", Points: 40, Level: 1}))
	require.NoError(t, repo.Upsert(ctx, &domain.Profile{UserID: "u1", Points: 140, Level: 2}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 140, got.Points)
	assert.Equal(t, 2, got.Level)

	assert.ErrorIs(t, repo.Upsert(ctx, &domain.Profile{}), domain.ErrInvalidPayload)
}
