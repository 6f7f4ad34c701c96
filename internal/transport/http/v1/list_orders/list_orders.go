package listorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/converters"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/respond"
)

type service interface {
	ListOrders(ctx context.Context, model order.QueryOrdersModel) ([]*order.Order, error)
	GetOrdersByCustomer(ctx context.Context, customerID string) ([]*order.Order, error)
	GetOrdersByStatus(ctx context.Context, status order.Status) ([]*order.Order, error)
}

var decoder = schema.NewDecoder()

type queryOrdersRequest struct {
	CustomerID string   `schema:"customerId,omitempty"`
	Statuses   []string `schema:"status,omitempty"`
	Limit      int      `schema:"limit,omitempty"`
	Offset     int      `schema:"offset,omitempty"`
}

func (q *queryOrdersRequest) ToModel() (order.QueryOrdersModel, error) {
	statuses := make([]order.Status, 0, len(q.Statuses))
	for _, s := range q.Statuses {
		status, err := order.ParseStatus(s)
		if err != nil {
			return order.QueryOrdersModel{}, err
		}
		statuses = append(statuses, status)
	}

	return order.QueryOrdersModel{
		CustomerID: q.CustomerID,
		Statuses:   statuses,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}, nil
}

// ListOrders filters orders by query parameters.
func ListOrders(w http.ResponseWriter, r *http.Request, service service) {
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request", "error", err)

		return
	}
	if query.Limit < 0 || query.Offset < 0 {
		http.Error(w, "limit and offset must not be negative", http.StatusBadRequest)

		return
	}

	model, err := query.ToModel()
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	orders, err := service.ListOrders(r.Context(), model)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.OrdersToResponse(orders))
}

// ByCustomer returns the orders of the {customerId} path parameter.
func ByCustomer(w http.ResponseWriter, r *http.Request, service service) {
	orders, err := service.GetOrdersByCustomer(r.Context(), chi.URLParam(r, "customerId"))
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.OrdersToResponse(orders))
}

// ByStatus returns the orders in the {status} path parameter.
func ByStatus(w http.ResponseWriter, r *http.Request, service service) {
	status, err := order.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	orders, err := service.GetOrdersByStatus(r.Context(), status)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.OrdersToResponse(orders))
}
