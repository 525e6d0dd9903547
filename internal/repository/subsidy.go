package repository

import (
	"context"
	"fmt"

	"github.com/flicky/agri-backoffice/internal/model"
)

type SubsidyRepository interface {
	List(ctx context.Context) ([]model.Subsidy, error)
	GetByID(ctx context.Context, id string) (*model.Subsidy, error)
	Create(ctx context.Context, subsidy *model.Subsidy) error
	Update(ctx context.Context, subsidy *model.Subsidy) error
	Delete(ctx context.Context, id string) error
}

type mongoSubsidyRepo struct{ c collection[model.Subsidy] }

func NewSubsidyRepository(store DocumentStore) SubsidyRepository {
	return &mongoSubsidyRepo{c: collection[model.Subsidy]{store: store, name: CollectionSubsidies}}
}

func (r *mongoSubsidyRepo) List(ctx context.Context) ([]model.Subsidy, error) {
	subsidies, err := r.c.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subsidies: %w", err)
	}
	return subsidies, nil
}

func (r *mongoSubsidyRepo) GetByID(ctx context.Context, id string) (*model.Subsidy, error) {
	s, err := r.c.get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get subsidy: %w", err)
	}
	return s, nil
}

func (r *mongoSubsidyRepo) Create(ctx context.Context, s *model.Subsidy) error {
	if err := r.c.add(ctx, s); err != nil {
		return fmt.Errorf("create subsidy: %w", err)
	}
	return nil
}

func (r *mongoSubsidyRepo) Update(ctx context.Context, s *model.Subsidy) error {
	err := r.c.update(ctx, s.ID, map[string]any{
		"name":          s.Name,
		"type":          s.Type,
		"amount":        s.Amount,
		"beneficiaries": s.Beneficiaries,
		"startDate":     s.StartDate,
		"endDate":       s.EndDate,
		"updatedAt":     s.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update subsidy: %w", err)
	}
	return nil
}

func (r *mongoSubsidyRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.delete(ctx, id); err != nil {
		return fmt.Errorf("delete subsidy: %w", err)
	}
	return nil
}
