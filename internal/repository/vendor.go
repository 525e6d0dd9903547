package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/flicky/agri-backoffice/internal/model"
)

type VendorRepository interface {
	List(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error)
	ListPending(ctx context.Context, limit int64) ([]model.Vendor, error)
	GetByID(ctx context.Context, id string) (*model.Vendor, error)
	GetByUserID(ctx context.Context, userID string) (*model.Vendor, error)
	Create(ctx context.Context, vendor *model.Vendor) error
	Update(ctx context.Context, id string, fields map[string]any) error
	Decide(ctx context.Context, id string, fields map[string]any) error
	Count(ctx context.Context) (int64, error)
}

type mongoVendorRepo struct{ c collection[model.Vendor] }

func NewVendorRepository(store DocumentStore) VendorRepository {
	return &mongoVendorRepo{c: collection[model.Vendor]{store: store, name: CollectionVendors}}
}

// List returns vendors newest first; an empty status returns every vendor.
func (r *mongoVendorRepo) List(ctx context.Context, status model.VendorStatus) ([]model.Vendor, error) {
	q := Query{OrderBy: "createdAt", Descending: true}
	if status != "" {
		q.Filters = []Filter{Eq("status", string(status))}
	}
	vendors, err := r.c.find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}

func (r *mongoVendorRepo) ListPending(ctx context.Context, limit int64) ([]model.Vendor, error) {
	vendors, err := r.c.find(ctx, Query{
		Filters: []Filter{Eq("status", string(model.VendorStatusPending))},
		Limit:   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list pending vendors: %w", err)
	}
	return vendors, nil
}

func (r *mongoVendorRepo) GetByID(ctx context.Context, id string) (*model.Vendor, error) {
	vendor, err := r.c.get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return vendor, nil
}

func (r *mongoVendorRepo) GetByUserID(ctx context.Context, userID string) (*model.Vendor, error) {
	vendors, err := r.c.find(ctx, Query{Filters: []Filter{Eq("userId", userID)}, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("get vendor by user: %w", err)
	}
	if len(vendors) == 0 {
		return nil, nil
	}
	return &vendors[0], nil
}

func (r *mongoVendorRepo) Create(ctx context.Context, vendor *model.Vendor) error {
	if err := r.c.add(ctx, vendor); err != nil {
		return fmt.Errorf("create vendor: %w", err)
	}
	return nil
}

func (r *mongoVendorRepo) Update(ctx context.Context, id string, fields map[string]any) error {
	if err := r.c.update(ctx, id, fields); err != nil {
		return fmt.Errorf("update vendor: %w", err)
	}
	return nil
}

// Decide writes a decision only while the vendor is still pending; a record
// without a status counts as pending. ErrNotFound means nothing matched.
func (r *mongoVendorRepo) Decide(ctx context.Context, id string, fields map[string]any) error {
	pending := In("status", string(model.VendorStatusPending), "", nil)
	if err := r.c.updateWhere(ctx, id, []Filter{pending}, fields); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("decide vendor: %w", err)
	}
	return nil
}

func (r *mongoVendorRepo) Count(ctx context.Context) (int64, error) {
	return r.c.count(ctx)
}
