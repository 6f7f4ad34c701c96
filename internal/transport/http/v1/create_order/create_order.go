package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/services/ordersvc"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/converters"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/respond"
)

// IdempotencyKeyHeader carries the client's idempotency key.
const IdempotencyKeyHeader = "Idempotency-Key"

var validate = validator.New()

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateOrderInput) (*order.Order, bool, error)
	ProcessOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
type itemInCreateOrderRequest struct {
	ProductID   string          `json:"productId"   validate:"required"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"    validate:"gte=1"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// createOrderRequest represents a create order request.
type createOrderRequest struct {
	CustomerID     string                     `json:"customerId"     validate:"required"`
	Items          []itemInCreateOrderRequest `json:"items"          validate:"required,min=1,dive"`
	IdempotencyKey string                     `json:"idempotencyKey" validate:"max=255"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validate.Struct(r)
}

// toInput converts createOrderRequest to the service input.
func (r *createOrderRequest) toInput(headerKey string) ordersvc.CreateOrderInput {
	items := make([]ordersvc.CreateItemInput, len(r.Items))
	for i, item := range r.Items {
		items[i] = ordersvc.CreateItemInput{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}

	key := r.IdempotencyKey
	if headerKey != "" {
		key = headerKey
	}

	return ordersvc.CreateOrderInput{
		CustomerID:     r.CustomerID,
		Items:          items,
		IdempotencyKey: key,
	}
}

// CreateOrder stores the order and runs its first reservation attempt.
// A replayed idempotency key returns the existing order with 200.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	slog.InfoContext(r.Context(), "Received request to create order", "customer_id", req.CustomerID)

	o, created, err := service.CreateOrder(r.Context(), req.toInput(r.Header.Get(IdempotencyKeyHeader)))
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	if !created {
		respond.JSON(w, r, http.StatusOK, converters.OrderToResponse(o))

		return
	}

	processed, err := service.ProcessOrder(r.Context(), o.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Error processing created order", "order_id", o.ID, "error", err)
	} else {
		o = processed
	}

	respond.JSON(w, r, http.StatusCreated, converters.OrderToResponse(o))
}
