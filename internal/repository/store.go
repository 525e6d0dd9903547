package repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by writes that target a missing document.
var ErrNotFound = errors.New("document not found")

const (
	CollectionUsers         = "users"
	CollectionVendors       = "vendors"
	CollectionProducts      = "products"
	CollectionOrders        = "orders"
	CollectionTraining      = "training"
	CollectionSubsidies     = "subsidies"
	CollectionWeatherAlerts = "weatherAlerts"
)

type FilterOp int

const (
	OpEqual FilterOp = iota
	OpIn
)

type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEqual, Value: value}
}

func In(field string, values ...any) Filter {
	return Filter{Field: field, Op: OpIn, Value: values}
}

// Query is a conjunction of filters with an optional single-field sort and limit.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int64
}

// DocumentStore is the collection-scoped contract every repository is built on.
// Get reports false when the document does not exist. Update merges the given
// fields into the document. UpdateWhere does the same only when the document
// also matches filters, and returns ErrNotFound otherwise.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string, dest any) (bool, error)
	Find(ctx context.Context, collection string, q Query, dest any) error
	Add(ctx context.Context, collection string, doc any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	UpdateWhere(ctx context.Context, collection, id string, filters []Filter, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Count(ctx context.Context, collection string) (int64, error)
}

// collection binds a DocumentStore to one collection and document type.
type collection[T any] struct {
	store DocumentStore
	name  string
}

func (c collection[T]) all(ctx context.Context) ([]T, error) {
	return c.find(ctx, Query{OrderBy: "createdAt", Descending: true})
}

func (c collection[T]) find(ctx context.Context, q Query) ([]T, error) {
	var docs []T
	if err := c.store.Find(ctx, c.name, q, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	var doc T
	ok, err := c.store.Get(ctx, c.name, id, &doc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &doc, nil
}

func (c collection[T]) add(ctx context.Context, doc *T) error {
	_, err := c.store.Add(ctx, c.name, doc)
	return err
}

func (c collection[T]) update(ctx context.Context, id string, fields map[string]any) error {
	return c.store.Update(ctx, c.name, id, fields)
}

func (c collection[T]) updateWhere(ctx context.Context, id string, filters []Filter, fields map[string]any) error {
	return c.store.UpdateWhere(ctx, c.name, id, filters, fields)
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	return c.store.Delete(ctx, c.name, id)
}

func (c collection[T]) count(ctx context.Context) (int64, error) {
	return c.store.Count(ctx, c.name)
}
