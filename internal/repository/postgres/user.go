package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"taskhub/internal/entities"
)

const (
	insertUserQuery = `INSERT INTO users(id, name, email, password_hash, role, is_active)
VALUES ($1,$2,$3,$4,$5,$6)
RETURNING created_at`
	selectUserByEmailQuery = `SELECT id, name, email, password_hash, role, is_active, created_at
FROM users WHERE email=$1`
	selectUserByIDQuery = `SELECT id, name, email, password_hash, role, is_active, created_at
FROM users WHERE id=$1`
	selectUsersQuery = `SELECT id, name, email, password_hash, role, is_active, created_at
FROM users ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	updateUserQuery = `UPDATE users
SET name = COALESCE($2, name), password_hash = COALESCE($3, password_hash)
WHERE id=$1
RETURNING id, name, email, password_hash, role, is_active, created_at`
	setUserActiveQuery = `UPDATE users SET is_active=$2 WHERE id=$1
RETURNING id, name, email, password_hash, role, is_active, created_at`
)

// CreateUser inserts a new account row.
func (p *Postgres) CreateUser(ctx context.Context, user entities.User) (*entities.User, error) {
	err := p.db.QueryRow(ctx, insertUserQuery,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive).
		Scan(&user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		p.log.Errorw("failed to insert user", "error", err, "email", user.Email)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, entities.ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	p.log.Infow("user created", "user_id", user.ID, "role", user.Role)
	return &user, nil
}

// UserByEmail returns the account with the given email, hash included.
func (p *Postgres) UserByEmail(ctx context.Context, email string) (*entities.User, error) {
	var u entities.User
	err := p.db.QueryRow(ctx, selectUserByEmailQuery, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		p.log.Errorw("failed to query user by email", "error", err)
		return nil, fmt.Errorf("user by email: %w", err)
	}

	return &u, nil
}

// UserByID returns the account with the given id.
func (p *Postgres) UserByID(ctx context.Context, id string) (*entities.User, error) {
	var u entities.User
	err := p.db.QueryRow(ctx, selectUserByIDQuery, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		p.log.Errorw("failed to query user by id", "error", err, "user_id", id)
		return nil, fmt.Errorf("user by id: %w", err)
	}

	return &u, nil
}

// ListUsers returns accounts newest first.
func (p *Postgres) ListUsers(ctx context.Context, limit, offset int) ([]entities.User, error) {
	rows, err := p.db.Query(ctx, selectUsersQuery, limit, offset)
	if err != nil {
		p.log.Errorw("failed to select users", "error", err)
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		var u entities.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt); err != nil {
			p.log.Errorw("failed to scan user", "error", err)
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		p.log.Errorw("failed to iterate users", "error", err)
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// UpdateUser applies the non-nil patch fields and returns the updated account.
func (p *Postgres) UpdateUser(ctx context.Context, id string, patch entities.UserPatch) (*entities.User, error) {
	var u entities.User
	err := p.db.QueryRow(ctx, updateUserQuery, id, patch.Name, patch.PasswordHash).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		p.log.Errorw("failed to update user", "error", err, "user_id", id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	p.log.Infow("user updated", "user_id", id)
	return &u, nil
}

// SetUserActive updates the is_active flag and returns the updated account.
func (p *Postgres) SetUserActive(ctx context.Context, id string, isActive bool) (*entities.User, error) {
	var u entities.User
	err := p.db.QueryRow(ctx, setUserActiveQuery, id, isActive).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		p.log.Errorw("failed to set user active", "error", err, "user_id", id)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("set user active: %w", err)
	}

	p.log.Infow("user active flag updated", "user_id", id, "is_active", isActive)
	return &u, nil
}
