package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wizdomai/pkg/auth"
	"wizdomai/pkg/domain"
	"wizdomai/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	JWTSecret     string

	// Users and Sessions override the default stores, for tests.
	Users    store.UserStore
	Sessions store.SessionStore
}

// App is the core application service wiring together storage and auth logic.
type App struct {
	users    store.UserStore
	sessions store.SessionStore
}

// New constructs the application with database storage and session management.
// Sessions are stateless JWTs when a secret is configured, Redis-backed
// otherwise.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	users := cfg.Users
	if users == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		users, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessions := cfg.Sessions
	if sessions == nil {
		if cfg.JWTSecret != "" {
			var err error
			sessions, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
			if err != nil {
				return nil, fmt.Errorf("init jwt session store: %w", err)
			}
		} else {
			if strings.TrimSpace(cfg.RedisAddr) == "" {
				return nil, fmt.Errorf("redisAddr is required for redis session strategy")
			}
			sessions = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
		}
	}

	return &App{users: users, sessions: sessions}, nil
}

// SignUp registers a new account and opens a session for it.
func (a *App) SignUp(email, password string, metadata map[string]string) (domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.Session{}, ErrEmailAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.Session{}, err
	}
	exists, err := a.users.HasUserEmail(email)
	if err != nil {
		return domain.Session{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Session{}, ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.users.SaveUser(user); err != nil {
		return domain.Session{}, fmt.Errorf("save user: %w", err)
	}
	return a.openSession(user)
}

// Login validates credentials and opens a session.
func (a *App) Login(email, password string) (domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.users.GetUserByEmail(email)
	if err != nil {
		return domain.Session{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.Session{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.Session{}, ErrInvalidCredentials
	}
	return a.openSession(user)
}

// Logout invalidates a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// Session resolves a token to its live session, if any.
func (a *App) Session(token string) (domain.Session, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.Session{}, false
	}
	user, found, err := a.users.GetUserByID(uid)
	if err != nil || !found {
		return domain.Session{}, false
	}
	return domain.Session{Token: token, User: user}, true
}

func (a *App) openSession(user domain.User) (domain.Session, error) {
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("issue session token: %w", err)
	}
	return domain.Session{Token: token, User: user}, nil
}
