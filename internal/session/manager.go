package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"roomrenting/internal/config"
	"roomrenting/internal/logging"
	"roomrenting/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Authenticator exchanges credentials for a token and profile.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*models.LoginResponse, error)
}

// Manager owns the session lifecycle for one profile.
type Manager struct {
	store   Store
	profile string
	ttl     time.Duration
	logger  zerolog.Logger
	now     func() time.Time
}

func NewManager(store Store, cfg config.SessionConfig, logger *zerolog.Logger) *Manager {
	l := logging.Component(logger, "session", "profile", cfg.Profile)
	return &Manager{
		store:   store,
		profile: cfg.Profile,
		ttl:     cfg.TTL(),
		logger:  l,
		now:     time.Now,
	}
}

// NewStore builds the store selected by cfg.Store. A redis store is wrapped in
// a failover to memory; redisClient may be nil for the other kinds.
func NewStore(cfg config.SessionConfig, redisClient *redis.Client, logger *zerolog.Logger) (Store, error) {
	switch cfg.Store {
	case config.SessionStoreRedis:
		if redisClient == nil {
			return nil, errors.New("redis session store requires a redis client")
		}
		return NewFailoverStore(NewRedisStore(redisClient, cfg.TTL()), NewMemoryStore(), logger), nil
	case config.SessionStoreMemory:
		return NewMemoryStore(), nil
	case config.SessionStoreFile, "":
		return NewFileStore(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}
}

// Login authenticates and stores the resulting session, replacing any
// previous one for the profile.
func (m *Manager) Login(ctx context.Context, auth Authenticator, email, password string) (*Session, error) {
	resp, err := auth.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.Token == "" || resp.UserID == 0 {
		return nil, errors.New("login response has no token or user id")
	}
	if !resp.UserType.Valid() {
		return nil, fmt.Errorf("login response has unknown role %q", resp.UserType)
	}

	now := m.now()
	s := &Session{
		Token:     resp.Token,
		UserID:    resp.UserID,
		Name:      resp.Name,
		Email:     resp.Email,
		Phone:     resp.PhoneNumber,
		Role:      resp.UserType,
		CreatedAt: now,
	}
	if m.ttl > 0 {
		s.ExpiresAt = now.Add(m.ttl)
	}

	if err := m.store.Save(ctx, m.profile, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.logger.Info().Int64("user_id", s.UserID).Str("role", string(s.Role)).Msg("logged in")
	return s, nil
}

func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.profile); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	m.logger.Info().Msg("logged out")
	return nil
}

// Current returns the live session or ErrNoSession. Expired sessions are
// removed on read.
func (m *Manager) Current(ctx context.Context) (*Session, error) {
	s, err := m.store.Get(ctx, m.profile)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil {
		return nil, ErrNoSession
	}
	if s.Expired(m.now()) {
		_ = m.store.Delete(ctx, m.profile)
		return nil, ErrNoSession
	}
	return s, nil
}
