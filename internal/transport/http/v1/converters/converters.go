package converters

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

// OrderItemResponse is the JSON shape of an order line.
type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderResponse is the JSON shape of an order.
type OrderResponse struct {
	ID                     uuid.UUID           `json:"id"`
	CustomerID             string              `json:"customerId"`
	Items                  []OrderItemResponse `json:"items"`
	TotalAmount            decimal.Decimal     `json:"totalAmount"`
	Status                 string              `json:"status"`
	FailureReason          *string             `json:"failureReason"`
	ReservationAttempts    int                 `json:"reservationAttempts"`
	LastReservationAttempt *time.Time          `json:"lastReservationAttempt"`
	CreatedAt              time.Time           `json:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt"`
}

// OrderSummaryResponse is the JSON shape of the dashboard summary.
type OrderSummaryResponse struct {
	OrderCountByStatus map[string]int64 `json:"orderCountByStatus"`
}

// OrderItemToResponse converts an order line.
func OrderItemToResponse(item order.Item) OrderItemResponse {
	return OrderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Quantity:    item.Quantity,
		UnitPrice:   item.UnitPrice,
		Subtotal:    item.Subtotal(),
	}
}

// OrderToResponse converts an order.
func OrderToResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemToResponse(item)
	}

	return OrderResponse{
		ID:                     o.ID,
		CustomerID:             o.CustomerID,
		Items:                  items,
		TotalAmount:            o.TotalAmount,
		Status:                 o.Status.String(),
		FailureReason:          o.FailureReason,
		ReservationAttempts:    o.ReservationAttempts,
		LastReservationAttempt: o.LastReservationAttempt,
		CreatedAt:              o.CreatedAt,
		UpdatedAt:              o.UpdatedAt,
	}
}

// OrdersToResponse converts a list of orders; the result is never nil.
func OrdersToResponse(orders []*order.Order) []OrderResponse {
	result := make([]OrderResponse, len(orders))
	for i, o := range orders {
		result[i] = OrderToResponse(o)
	}

	return result
}

// SummaryToResponse converts per-status counts.
func SummaryToResponse(summary order.Summary) OrderSummaryResponse {
	counts := make(map[string]int64, len(summary))
	for status, n := range summary {
		counts[status.String()] = n
	}

	return OrderSummaryResponse{OrderCountByStatus: counts}
}
