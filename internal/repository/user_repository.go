package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/database"
	"github.com/iliyamo/parking-lot-reservation/internal/model"
)

const userColumns = "id, email, password_hash, name, is_admin, created_at"

// UserRepo handles persistence for user accounts.
type UserRepo struct{ db *sqlx.DB }

// NewUserRepo constructs a UserRepo with the given DB handle.
func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// NormalizeEmail trims and lower-cases an email address.  Every lookup and
// insert goes through it so the UNIQUE index is case-insensitive in effect.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create inserts u and sets u.ID.  PasswordHash must already be a bcrypt
// hash.  A duplicate email yields ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	u.Email = NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	id, err := database.InsertID(ctx, r.db,
		"INSERT INTO users (email, password_hash, name, is_admin, created_at) VALUES (?, ?, ?, ?, ?)",
		u.Email, u.PasswordHash, u.Name, u.IsAdmin, u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	u.ID = id
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u,
		r.db.Rebind("SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1"),
		NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u,
		r.db.Rebind("SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EmailExists reports whether a user with the normalized email exists.
func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		r.db.Rebind("SELECT COUNT(*) FROM users WHERE email = ?"), NormalizeEmail(email))
	return n > 0, err
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	users := []model.User{}
	err := r.db.SelectContext(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY id")
	return users, err
}

// UpdateProfile replaces the display name and password hash.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE users SET name = ?, password_hash = ? WHERE id = ?"),
		name, passwordHash, id)
	if err != nil {
		return err
	}
	return expectOne(res, ErrUserNotFound)
}

// SetAdmin sets or clears the admin flag.
func (r *UserRepo) SetAdmin(ctx context.Context, id uint64, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind("UPDATE users SET is_admin = ? WHERE id = ?"), isAdmin, id)
	if err != nil {
		return err
	}
	return expectOne(res, ErrUserNotFound)
}

// expectOne maps a write that touched no rows to notFound.  MySQL
// connections are opened with clientFoundRows so an update that leaves
// the values unchanged still counts the matched row.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
