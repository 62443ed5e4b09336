// Package store holds the auth service's persistence: user accounts and
// session tokens, each behind a small interface with in-memory, Redis, JWT,
// and Postgres implementations.
package store

import "wizdomai/pkg/domain"

// UserStore persists user accounts.
type UserStore interface {
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
}

// SessionStore persists session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
