package postgres

import (
	"context"
	"fmt"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
)

type usersRepo struct {
	db DBTX
}

const userColumns = `id, name, role, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &role, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}
	u.Role = r
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *usersRepo) GetUserByName(ctx context.Context, name string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE name = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, name))
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	query := `
		INSERT INTO users (id, name, role, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Name, u.Role.String(), u.PasswordHash, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	return mapUniqueViolation(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	query := `
		UPDATE users
		SET name = $1, role = $2, password_hash = $3, updated_at = $4
		WHERE id = $5
	`
	res, err := r.db.ExecContext(ctx, query, u.Name, u.Role.String(), u.PasswordHash, u.UpdatedAt.UTC(), u.ID)
	return mapAffected(res, mapUniqueViolation(err))
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	return mapAffected(r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
