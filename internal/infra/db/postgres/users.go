package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	domainauth "apexrentals/internal/domain/auth"
	domainuser "apexrentals/internal/domain/user"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, phone, password_hash, role, created_at, updated_at`

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, string(id))
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, domainuser.NormalizeEmail(email))
}

func (r *UserRepository) Save(ctx context.Context, user *domainuser.User) error {
	if user == nil || user.ID == "" {
		return domainuser.ErrIDRequired
	}
	row := userRow{
		ID:           string(user.ID),
		Email:        domainuser.NormalizeEmail(user.Email),
		Name:         user.Name,
		Phone:        user.Phone,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if row.Email == "" {
		return domainuser.ErrEmailRequired
	}
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), `INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :name, :phone, :password_hash, :role, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, name = EXCLUDED.name, phone = EXCLUDED.phone,
			password_hash = EXCLUDED.password_hash, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at`, row)
	if pqCode(err) == codeUniqueViolation {
		return domainuser.ErrEmailAlreadyUsed
	}
	return err
}

func (r *UserRepository) get(ctx context.Context, query string, arg any) (*domainuser.User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, conn(ctx, r.db), &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainuser.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domainuser.User{
		ID:           domainuser.ID(row.ID),
		Email:        row.Email,
		Name:         row.Name,
		Phone:        row.Phone,
		PasswordHash: row.PasswordHash,
		Role:         domainuser.Role(row.Role),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}, nil
}

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	Phone        string    `db:"phone"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// SessionStore filters expired rows on read; nothing reaps them in the background.
type SessionStore struct {
	db *sqlx.DB
}

func NewSessionStore(db *sqlx.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	if session == nil {
		return domainauth.ErrTokenRequired
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (token, user_id, role, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (token) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		string(session.Token), string(session.UserID), string(session.Role), session.CreatedAt, session.ExpiresAt)
	return err
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	var row struct {
		Token     string    `db:"token"`
		UserID    string    `db:"user_id"`
		Role      string    `db:"role"`
		CreatedAt time.Time `db:"created_at"`
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.GetContext(ctx, &row, `SELECT token, user_id, role, created_at, expires_at
		FROM sessions WHERE token = $1 AND expires_at > now()`, string(token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainauth.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &domainauth.Session{
		Token:     domainauth.Token(row.Token),
		UserID:    domainuser.ID(row.UserID),
		Role:      domainuser.Role(row.Role),
		CreatedAt: row.CreatedAt.UTC(),
		ExpiresAt: row.ExpiresAt.UTC(),
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = $1`, string(token))
	return err
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, string(userID))
	return err
}

var (
	_ domainuser.Repository   = (*UserRepository)(nil)
	_ domainauth.SessionStore = (*SessionStore)(nil)
)
