package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/repository"
)

type OrderService struct {
	orders   repository.OrderRepository
	notifier *Notifier
	now      func() time.Time
}

func NewOrderService(orders repository.OrderRepository, notifier *Notifier) *OrderService {
	return &OrderService{orders: orders, notifier: notifier, now: time.Now}
}

func (s *OrderService) List(ctx context.Context) ([]dto.OrderResponse, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

// ListActive returns confirmed, processing and shipping orders, newest first.
func (s *OrderService) ListActive(ctx context.Context) ([]dto.OrderResponse, error) {
	orders, err := s.orders.ListByStatuses(ctx, model.ActiveOrderStatuses)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (s *OrderService) Recent(ctx context.Context, limit int64) ([]dto.OrderResponse, error) {
	orders, err := s.orders.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toOrderResponses(orders), nil
}

func (s *OrderService) Get(ctx context.Context, id string) (*dto.OrderResponse, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	resp := toOrderResponse(order)
	return &resp, nil
}

// Stats scans every order and tallies them per status.
func (s *OrderService) Stats(ctx context.Context) (*dto.OrderStatsResponse, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	stats := TallyOrderStatuses(orders)
	return &stats, nil
}

// TallyOrderStatuses counts orders per status. A missing status counts as
// pending; an unrecognised one only counts toward the total.
func TallyOrderStatuses(orders []model.Order) dto.OrderStatsResponse {
	var st dto.OrderStatsResponse
	for _, o := range orders {
		st.Total++
		switch o.Status.Normalize() {
		case model.OrderStatusPending:
			st.Pending++
		case model.OrderStatusConfirmed:
			st.Confirmed++
		case model.OrderStatusProcessing:
			st.Processing++
		case model.OrderStatusShipping:
			st.Shipping++
		case model.OrderStatusDelivered:
			st.Delivered++
		case model.OrderStatusCancelled:
			st.Cancelled++
		}
	}
	return st
}

// UpdateStatus moves an order to target. Illegal transitions are rejected
// before anything is written. The stored update time is always strictly
// later than the previous one.
func (s *OrderService) UpdateStatus(ctx context.Context, id, target, actorID string) (*dto.OrderResponse, error) {
	next, err := model.ParseOrderStatus(target)
	if err != nil {
		return nil, invalid("status", err.Error())
	}

	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	prev := order.Status.Normalize()
	if err := model.ValidateOrderTransition(prev, next); err != nil {
		return nil, err
	}

	updatedAt := nextTimestamp(s.now(), order.UpdatedAt)
	if err := s.orders.UpdateStatus(ctx, id, next, updatedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Status = next
	order.UpdatedAt = updatedAt

	s.notifier.Notify(ctx, model.NewEvent(model.EventOrderStatusChanged, "order", id, actorID, map[string]any{
		"from": string(prev),
		"to":   string(next),
	}))

	resp := toOrderResponse(order)
	return &resp, nil
}

// nextTimestamp returns now at millisecond precision, bumped past prev when
// the clock has not moved beyond it.
func nextTimestamp(now, prev time.Time) time.Time {
	ts := now.UTC().Truncate(time.Millisecond)
	if !ts.After(prev) {
		ts = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return ts
}

func toOrderResponses(orders []model.Order) []dto.OrderResponse {
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	return out
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID: it.ProductID, ProductName: it.ProductName,
			Quantity: it.Quantity, Price: it.Price,
		})
	}
	status := o.Status.Normalize()
	return dto.OrderResponse{
		ID:          o.ID,
		UserID:      o.UserID,
		Address:     o.Address,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      status,
		StatusLabel: status.Label(),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}
