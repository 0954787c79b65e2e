package sqlite

import (
	"context"

	"github.com/schmeconomics/schmeconomics/internal/auth/domain"
	"github.com/schmeconomics/schmeconomics/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row)
}

func (r *usersRepo) GetUserByName(ctx context.Context, name string) (domain.User, error) {
	row, err := r.q.GetUserByName(ctx, name)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:           u.ID,
		Name:         u.Name,
		Role:         u.Role.String(),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	})
	return mapUniqueViolation(err)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User) error {
	n, err := r.q.UpdateUser(ctx, gen.UpdateUserParams{
		Name:         u.Name,
		Role:         u.Role.String(),
		PasswordHash: u.PasswordHash,
		UpdatedAt:    u.UpdatedAt.UTC(),
		ID:           u.ID,
	})
	return mapAffected(n, mapUniqueViolation(err))
}

func (r *usersRepo) DeleteUser(ctx context.Context, id string) error {
	return mapAffected(r.q.DeleteUser(ctx, id))
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.q.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
