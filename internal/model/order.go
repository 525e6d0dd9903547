package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipping   OrderStatus = "shipping"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// OrderStatuses lists every status in delivery pipeline order, cancelled last.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipping,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ActiveOrderStatuses are the statuses shown on the logistics board.
var ActiveOrderStatuses = []OrderStatus{
	OrderStatusConfirmed,
	OrderStatusProcessing,
	OrderStatusShipping,
}

var orderPipeline = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipping:   3,
	OrderStatusDelivered:  4,
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:    "En attente",
	OrderStatusConfirmed:  "Confirmée",
	OrderStatusProcessing: "En préparation",
	OrderStatusShipping:   "En livraison",
	OrderStatusDelivered:  "Livrée",
	OrderStatusCancelled:  "Annulée",
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Normalize maps a missing status to pending, the way stored orders are read.
func (s OrderStatus) Normalize() OrderStatus {
	if s == "" {
		return OrderStatusPending
	}
	return s
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) Label() string {
	if l, ok := orderStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

// CanTransitionTo reports whether an order may move from s to next.
// Moves go strictly forward through the pipeline; cancellation is allowed
// from any non-terminal status.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	from := s.Normalize()
	if from.Terminal() || !next.Valid() {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	return orderPipeline[next] > orderPipeline[from]
}

func ValidateOrderTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{Entity: "order", From: string(from.Normalize()), To: string(to)}
	}
	return nil
}

type Order struct {
	ID          string          `bson:"_id" json:"id"`
	UserID      string          `bson:"userId" json:"user_id"`
	Address     string          `bson:"address" json:"address"`
	Items       []OrderItem     `bson:"items" json:"items"`
	TotalAmount decimal.Decimal `bson:"totalAmount" json:"total_amount"`
	Status      OrderStatus     `bson:"status" json:"status"`
	CreatedAt   time.Time       `bson:"createdAt" json:"created_at"`
	UpdatedAt   time.Time       `bson:"updatedAt" json:"updated_at"`
}

type OrderItem struct {
	ProductID   string          `bson:"productId" json:"product_id"`
	ProductName string          `bson:"productName" json:"product_name"`
	Quantity    int             `bson:"quantity" json:"quantity"`
	Price       decimal.Decimal `bson:"price" json:"price"`
}
