package dashboard

import (
	"context"
	"net/http"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/converters"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/respond"
)

type service interface {
	Summary(ctx context.Context) (order.Summary, error)
	GetOrdersByStatus(ctx context.Context, status order.Status) ([]*order.Order, error)
}

// OrderSummary returns the number of orders per status.
func OrderSummary(w http.ResponseWriter, r *http.Request, service service) {
	summary, err := service.Summary(r.Context())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.SummaryToResponse(summary))
}

// PendingReservations lists orders still waiting for stock.
func PendingReservations(w http.ResponseWriter, r *http.Request, service service) {
	byStatus(w, r, service, order.StatusPendingReservingStock)
}

// InvalidOrders lists failed orders.
func InvalidOrders(w http.ResponseWriter, r *http.Request, service service) {
	byStatus(w, r, service, order.StatusInvalid)
}

func byStatus(w http.ResponseWriter, r *http.Request, service service, status order.Status) {
	orders, err := service.GetOrdersByStatus(r.Context(), status)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.OrdersToResponse(orders))
}
