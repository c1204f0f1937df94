package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when registering an email that already
	// has a user record.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User is the credential-store record. The json tags keep the wire shape the
// deployed SPA reads (_id, date); the password hash is never serialized.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"date"`
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Create(ctx context.Context, u *User) error
	DeleteByID(ctx context.Context, id string) error
}

// PgUserRepository implements UserRepository using pgxpool.
type PgUserRepository struct {
	db *pgxpool.Pool
}

func NewPgUserRepository(db *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{db: db}
}

func (r *PgUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const q = `SELECT id, name, email, password_hash, avatar, created_at FROM users WHERE email=$1`
	return r.scanOne(ctx, q, email)
}

func (r *PgUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	const q = `SELECT id, name, email, password_hash, avatar, created_at FROM users WHERE id=$1`
	return r.scanOne(ctx, q, id)
}

func (r *PgUserRepository) scanOne(ctx context.Context, q string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, q, arg).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Avatar, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PgUserRepository) Create(ctx context.Context, u *User) error {
	const q = `INSERT INTO users (id, name, email, password_hash, avatar) VALUES ($1,$2,$3,$4,$5) RETURNING created_at`
	err := r.db.QueryRow(ctx, q, u.ID, u.Name, u.Email, u.PasswordHash, u.Avatar).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// DeleteByID removes the user; the profile row cascades at the schema level.
func (r *PgUserRepository) DeleteByID(ctx context.Context, id string) error {
	const q = `DELETE FROM users WHERE id=$1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}
