// internal/account/account.go
//
// User accounts backed by the users table.
// Responsibilities:
//   - Validate and create users with bcrypt password hashes.
//   - Authenticate username/password pairs.
//   - Look users up by ID for token verification.
//
// Usernames are case-insensitively unique (COLLATE NOCASE in the schema).

package account

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("user not found")
)

// ValidationError describes a rejected signup field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Reason }

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store reads and writes users.
type Store struct {
	db   *sql.DB
	cost int
}

// NewStore returns a Store using bcrypt.DefaultCost.
func NewStore(db *sql.DB) *Store { return &Store{db: db, cost: bcrypt.DefaultCost} }

// WithCost returns a copy of the store hashing at cost; tests use bcrypt.MinCost.
func (s *Store) WithCost(cost int) *Store {
	return &Store{db: s.db, cost: cost}
}

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func validateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return &ValidationError{Field: "username", Reason: "must be 3-24 chars"}
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &ValidationError{Field: "username", Reason: "letters, numbers, underscore only"}
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return &ValidationError{Field: "password", Reason: "must be 8-100 chars"}
	}
	return nil
}

// Create validates input, hashes the password and inserts a new user.
func (s *Store) Create(ctx context.Context, username, pw string) (*User, error) {
	username = normalizeUsername(username)
	if err := validateSignup(username, pw); err != nil {
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           NewID(),
		Username:     username,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user when pw matches, else ErrInvalidCredentials.
func (s *Store) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.FindByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(pw)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at
	                                  FROM users WHERE username=?`, username)
	return scanUser(row)
}

func (s *Store) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at
	                                  FROM users WHERE id=?`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// NewID creates a 22-char URL-safe, crypto-random identifier (no padding).
func NewID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
