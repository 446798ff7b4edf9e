package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/repository"
)

const minPasswordLength = 6

// Evictor drops server-side state held for a user.
type Evictor interface {
	Evict(ctx context.Context, userID string) error
}

type Config struct {
	Secret     string
	Issuer     string
	TTL        time.Duration
	BcryptCost int
}

// Result is returned by sign-up and sign-in.
type Result struct {
	User    *domain.User    `json:"user"`
	Session *domain.Session `json:"session"`
	Token   string          `json:"token"`
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	profiles repository.ProfileRepository
	evictor  Evictor
	cfg      Config
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.SessionRepository, profiles repository.ProfileRepository, evictor Evictor, cfg Config, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		profiles: profiles,
		evictor:  evictor,
		cfg:      cfg,
		logger:   logger,
	}
}

// SignUp registers a user with an empty profile and signs them in.
func (uc *UseCase) SignUp(ctx context.Context, email, password string) (*Result, error) {
	email = domain.NormalizeEmail(email)
	if !validEmail(email) {
		return nil, domain.ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cfg.BcryptCost)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "hash password", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	profile := domain.NewProfile(user.ID)
	if err := uc.profiles.Upsert(ctx, &profile); err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return uc.startSession(ctx, user)
}

func (uc *UseCase) SignIn(ctx context.Context, email, password string) (*Result, error) {
	user, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrBadCredentials
	}
	return uc.startSession(ctx, user)
}

// SignOut revokes the session and asks the evictor to drop the user's loaded workspace.
// Stored progress is kept. The registry keeps a workspace whose focus session is still
// running, since the user's other sessions share it.
func (uc *UseCase) SignOut(ctx context.Context, sessionID string) error {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	if uc.evictor != nil {
		if err := uc.evictor.Evict(ctx, session.UserID); err != nil {
			uc.logger.Warn("failed to evict workspace", zap.String("user_id", session.UserID), zap.Error(err))
		}
	}
	uc.logger.Info("user signed out", zap.String("user_id", session.UserID))
	return nil
}

// CurrentSession returns the live session or ErrSessionNotFound.
func (uc *UseCase) CurrentSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = uc.sessions.Delete(ctx, sessionID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// RefreshSession extends the session and issues a fresh token for it.
func (uc *UseCase) RefreshSession(ctx context.Context, sessionID string) (*Result, error) {
	session, err := uc.CurrentSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := uc.sessions.Extend(ctx, sessionID, int(uc.cfg.TTL.Seconds())); err != nil {
		return nil, err
	}
	session.ExpiresAt = time.Now().Add(uc.cfg.TTL)

	token, err := SignToken(uc.cfg.Secret, uc.cfg.Issuer, session)
	if err != nil {
		return nil, err
	}
	return &Result{Session: session, Token: token}, nil
}

func (uc *UseCase) startSession(ctx context.Context, user *domain.User) (*Result, error) {
	now := time.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.cfg.TTL),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	token, err := SignToken(uc.cfg.Secret, uc.cfg.Issuer, session)
	if err != nil {
		return nil, err
	}
	return &Result{User: user, Session: session, Token: token}, nil
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
