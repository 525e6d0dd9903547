package repository

import (
	"context"
	"fmt"

	"github.com/flicky/agri-backoffice/internal/model"
)

type ProductRepository interface {
	List(ctx context.Context) ([]model.Product, error)
	GetByID(ctx context.Context, id string) (*model.Product, error)
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type mongoProductRepo struct{ c collection[model.Product] }

func NewProductRepository(store DocumentStore) ProductRepository {
	return &mongoProductRepo{c: collection[model.Product]{store: store, name: CollectionProducts}}
}

func (r *mongoProductRepo) List(ctx context.Context) ([]model.Product, error) {
	products, err := r.c.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (r *mongoProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	p, err := r.c.get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *mongoProductRepo) Create(ctx context.Context, product *model.Product) error {
	if err := r.c.add(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update writes every editable field; createdAt is left untouched.
func (r *mongoProductRepo) Update(ctx context.Context, p *model.Product) error {
	t := p.Traceability
	err := r.c.update(ctx, p.ID, map[string]any{
		"name":                p.Name,
		"description":         p.Description,
		"detailedDescription": p.DetailedDescription,
		"category":            p.Category,
		"zone":                p.Zone,
		"price":               p.Price,
		"deferredPrice":       p.DeferredPrice,
		"stock":               p.Stock,
		"isAvailable":         p.IsAvailable,
		"certification":       p.Certification,
		"rating":              p.Rating,
		"reviewCount":         p.ReviewCount,
		"origin":              t.Origin,
		"certificationNumber": t.CertificationNumber,
		"producer":            t.Producer,
		"packagingDate":       t.PackagingDate,
		"packagingLocation":   t.PackagingLocation,
		"season":              t.Season,
		"agroEcologicalZone":  t.AgroEcologicalZone,
		"qrCode":              p.QRCode,
		"imageUrl":            p.ImageURL,
		"updatedAt":           p.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *mongoProductRepo) Delete(ctx context.Context, id string) error {
	if err := r.c.delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (r *mongoProductRepo) Count(ctx context.Context) (int64, error) {
	return r.c.count(ctx)
}
