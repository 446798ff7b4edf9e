package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
	"github.com/fastygo/taskflow/repository/memory"
	"github.com/fastygo/taskflow/repository/sqlite"
	"github.com/fastygo/taskflow/usecase/focus"
	"github.com/fastygo/taskflow/usecase/workspace"
)

const testSecret = "test-secret"

type evictions struct {
	users []string
}

func (e *evictions) Evict(_ context.Context, userID string) error {
	e.users = append(e.users, userID)
	return nil
}

type harness struct {
	uc       *UseCase
	profiles repository.ProfileRepository
	evicted  *evictions
}

func newHarness(t *testing.T) harness {
	t.Helper()
	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	profiles := sqlite.NewProfileRepository(db)
	evicted := &evictions{}
	uc := New(
		sqlite.NewUserRepository(db),
		memory.NewSessionRepository(time.Hour),
		profiles,
		evicted,
		Config{Secret: testSecret, Issuer: "taskflow-test", TTL: time.Hour, BcryptCost: bcrypt.MinCost},
		nil,
	)
	return harness{uc: uc, profiles: profiles, evicted: evicted}
}

func TestSignUpCreatesUserProfileAndSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.uc.SignUp(ctx, "  Ada@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.NotEqual(t, "secret1", res.User.PasswordHash)
	assert.Equal(t, res.User.ID, res.Session.UserID)

	profile, err := h.profiles.Get(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Points)
	assert.Equal(t, 1, profile.Level)

	claims, err := ParseToken(testSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, res.Session.ID, claims.SessionID)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestSignUpValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"missing at", "ada.example.com", "secret1", domain.ErrInvalidEmail},
		{"empty", "", "secret1", domain.ErrInvalidEmail},
		{"short password", "ada@example.com", "12345", domain.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.uc.SignUp(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.uc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	_, err = h.uc.SignUp(ctx, "ADA@example.com", "another1")
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeConflict))
}

func TestSignIn(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	reg, err := h.uc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	res, err := h.uc.SignIn(ctx, "Ada@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEqual(t, reg.Session.ID, res.Session.ID)

	_, err = h.uc.SignIn(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)
	_, err = h.uc.SignIn(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)
}

func TestSignOutRevokesAndEvicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.uc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	session, err := h.uc.CurrentSession(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, session.UserID)

	require.NoError(t, h.uc.SignOut(ctx, res.Session.ID))
	assert.Equal(t, []string{res.User.ID}, h.evicted.users)

	_, err = h.uc.CurrentSession(ctx, res.Session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	require.NoError(t, h.uc.SignOut(ctx, res.Session.ID))
	assert.Len(t, h.evicted.users, 1)
}

func TestRefreshSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.uc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	refreshed, err := h.uc.RefreshSession(ctx, res.Session.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.Session.ExpiresAt.Before(res.Session.ExpiresAt))

	claims, err := ParseToken(testSecret, refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, claims.SessionID)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	session := &domain.Session{ID: "s1", UserID: "u1", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	token, err := SignToken(testSecret, "", session)
	require.NoError(t, err)

	_, err = ParseToken("other-secret", token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	expired := &domain.Session{ID: "s2", UserID: "u1", CreatedAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Hour)}
	token, err = SignToken(testSecret, "", expired)
	require.NoError(t, err)
	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSignOutKeepsFocusSessionOfOtherDevice(t *testing.T) {
	db, err := sqlite.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()

	profiles := sqlite.NewProfileRepository(db)
	registry := workspace.NewRegistry(workspace.Dependencies{
		Tasks:    sqlite.NewTaskRepository(db),
		Profiles: profiles,
	}, workspace.Settings{FocusDuration: time.Hour}, nil)
	t.Cleanup(func() { registry.Close(context.Background()) })

	uc := New(sqlite.NewUserRepository(db), memory.NewSessionRepository(time.Hour), profiles, registry,
		Config{Secret: testSecret, TTL: time.Hour, BcryptCost: bcrypt.MinCost}, nil)

	laptop, err := uc.SignUp(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)
	phone, err := uc.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	ws, err := registry.Get(ctx, laptop.User.ID)
	require.NoError(t, err)
	task, err := ws.CreateTask(ctx, domain.TaskDraft{Title: "deep work"})
	require.NoError(t, err)
	_, err = ws.StartFocus(task.ID)
	require.NoError(t, err)

	require.NoError(t, uc.SignOut(ctx, phone.Session.ID))
	assert.Equal(t, 1, registry.Len())
	assert.Equal(t, focus.StateRunning, ws.FocusStatus().State)

	_, err = uc.CurrentSession(ctx, laptop.Session.ID)
	require.NoError(t, err)

	require.NoError(t, ws.CancelFocus())
	require.NoError(t, uc.SignOut(ctx, laptop.Session.ID))
	assert.Zero(t, registry.Len())
}
