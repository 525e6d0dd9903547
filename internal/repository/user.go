package repository

import (
	"context"
	"fmt"

	"github.com/flicky/agri-backoffice/internal/model"
)

type UserRepository interface {
	List(ctx context.Context) ([]model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type mongoUserRepo struct{ c collection[model.User] }

func NewUserRepository(store DocumentStore) UserRepository {
	return &mongoUserRepo{c: collection[model.User]{store: store, name: CollectionUsers}}
}

func (r *mongoUserRepo) List(ctx context.Context) ([]model.User, error) {
	users, err := r.c.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *mongoUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	user, err := r.c.get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *mongoUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := r.c.find(ctx, Query{Filters: []Filter{Eq("email", email)}, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}

func (r *mongoUserRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.c.update(ctx, id, fields); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (r *mongoUserRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (r *mongoUserRepo) Count(ctx context.Context) (int64, error) {
	return r.c.count(ctx)
}
