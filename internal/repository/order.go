package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/flicky/agri-backoffice/internal/model"
)

type OrderRepository interface {
	List(ctx context.Context) ([]model.Order, error)
	ListByStatuses(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error)
	Recent(ctx context.Context, limit int64) ([]model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus, updatedAt time.Time) error
	Count(ctx context.Context) (int64, error)
}

type mongoOrderRepo struct{ c collection[model.Order] }

func NewOrderRepository(store DocumentStore) OrderRepository {
	return &mongoOrderRepo{c: collection[model.Order]{store: store, name: CollectionOrders}}
}

func (r *mongoOrderRepo) List(ctx context.Context) ([]model.Order, error) {
	orders, err := r.c.all(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrderRepo) ListByStatuses(ctx context.Context, statuses []model.OrderStatus) ([]model.Order, error) {
	values := make([]any, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	orders, err := r.c.find(ctx, Query{
		Filters:    []Filter{In("status", values...)},
		OrderBy:    "createdAt",
		Descending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders by status: %w", err)
	}
	return orders, nil
}

func (r *mongoOrderRepo) Recent(ctx context.Context, limit int64) ([]model.Order, error) {
	orders, err := r.c.find(ctx, Query{OrderBy: "createdAt", Descending: true, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list recent orders: %w", err)
	}
	return orders, nil
}

func (r *mongoOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	order, err := r.c.get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (r *mongoOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, updatedAt time.Time) error {
	err := r.c.update(ctx, id, map[string]any{
		"status":    string(status),
		"updatedAt": updatedAt,
	})
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

func (r *mongoOrderRepo) Count(ctx context.Context) (int64, error) {
	return r.c.count(ctx)
}
