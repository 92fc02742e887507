// Package auth turns a /users lookup into an explicit session object.
// Nothing here reads ambient state: callers hold the Session and pass it on.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dhoini/customer-console/internal/domain"
	"github.com/Dhoini/customer-console/pkg/logger"
	"github.com/google/uuid"
)

// Verifier checks credentials against the record store
type Verifier interface {
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
}

// Session is the opaque logged-in marker of one console user
type Session struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Valid reports whether s represents a logged in user
func (s Session) Valid() bool {
	return s.Token != "" && s.User.ID != ""
}

// Authenticator logs users in and out
type Authenticator struct {
	verifier Verifier
	markers  MarkerStore
	ttl      time.Duration
	log      *logger.Logger
}

// NewAuthenticator creates an authenticator; ttl <= 0 keeps markers forever
func NewAuthenticator(verifier Verifier, markers MarkerStore, ttl time.Duration, log *logger.Logger) *Authenticator {
	return &Authenticator{verifier: verifier, markers: markers, ttl: ttl, log: log}
}

// Login verifies the credentials and stores a fresh session marker
func (a *Authenticator) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Session{}, fmt.Errorf("empty credentials: %w", domain.ErrUnauthenticated)
	}

	user, err := a.verifier.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			a.log.Warnw("Login rejected", "username", username)
		} else {
			a.log.Errorw("Login failed", "username", username, "error", err)
		}
		return Session{}, err
	}

	session := Session{Token: uuid.NewString(), User: user}
	if err := a.markers.Save(ctx, session.Token, user, a.ttl); err != nil {
		return Session{}, fmt.Errorf("save session: %w", err)
	}

	a.log.Infow("User logged in", "userID", user.ID, "username", user.Username)
	return session, nil
}

// Resume restores the session behind token
func (a *Authenticator) Resume(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, fmt.Errorf("empty session token: %w", domain.ErrUnauthenticated)
	}

	user, ok, err := a.markers.Lookup(ctx, token)
	if err != nil {
		return Session{}, fmt.Errorf("resume session: %w", err)
	}
	if !ok {
		return Session{}, fmt.Errorf("session expired: %w", domain.ErrUnauthenticated)
	}
	return Session{Token: token, User: user}, nil
}

// Logout forgets the session marker
func (a *Authenticator) Logout(ctx context.Context, s Session) error {
	if err := a.markers.Delete(ctx, s.Token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.log.Infow("User logged out", "userID", s.User.ID)
	return nil
}
