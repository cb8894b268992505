package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"apexrentals/internal/domain/user"
)

var (
	ErrTokenRequired   = errors.New("auth: token is required")
	ErrUserRequired    = errors.New("auth: user is required")
	ErrTTLInvalid      = errors.New("auth: ttl must be positive")
	ErrSessionNotFound = errors.New("auth: session not found")
)

type Token string

// Session is the server-side record behind a bearer token. It pins the role
// the account had at sign-in; deleting the record revokes the token.
type Session struct {
	Token     Token
	UserID    user.ID
	Role      user.Role
	CreatedAt time.Time
	ExpiresAt time.Time
}

type CreateSessionParams struct {
	Token  Token
	UserID user.ID
	Role   user.Role
	TTL    time.Duration
	Now    time.Time
}

func NewSession(params CreateSessionParams) (*Session, error) {
	token := Token(strings.TrimSpace(string(params.Token)))
	switch {
	case token == "":
		return nil, ErrTokenRequired
	case strings.TrimSpace(string(params.UserID)) == "":
		return nil, ErrUserRequired
	case params.TTL <= 0:
		return nil, ErrTTLInvalid
	}
	role, err := user.ParseRole(string(params.Role))
	if err != nil {
		return nil, err
	}
	issued := orNow(params.Now)
	return &Session{
		Token:     token,
		UserID:    params.UserID,
		Role:      role,
		CreatedAt: issued,
		ExpiresAt: issued.Add(params.TTL),
	}, nil
}

func (s *Session) Expired(at time.Time) bool {
	return !s.ExpiresAt.After(orNow(at))
}

// Authorizes checks the session against the account as stored now. A session
// outlives neither its expiry nor a role change on the account.
func (s *Session) Authorizes(account *user.User, at time.Time) error {
	switch {
	case account == nil || account.ID != s.UserID:
		return ErrSessionNotFound
	case s.Expired(at):
		return fmt.Errorf("%w: expired at %s", ErrSessionNotFound, s.ExpiresAt.Format(time.RFC3339))
	case account.Role != s.Role:
		return fmt.Errorf("%w: role changed from %s to %s", ErrSessionNotFound, s.Role, account.Role)
	}
	return nil
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC()
}

type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Get(ctx context.Context, token Token) (*Session, error)
	Delete(ctx context.Context, token Token) error
	DeleteByUser(ctx context.Context, userID user.ID) error
}
