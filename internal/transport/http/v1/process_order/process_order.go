package processorder

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/converters"
	getorder "github.com/corray333/backend-labs/reservation/internal/transport/http/v1/get_order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/respond"
)

type service interface {
	ProcessOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

// ProcessOrder runs one reservation attempt and returns the resulting order.
func ProcessOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := getorder.ParseOrderID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	slog.InfoContext(r.Context(), "Received request to process order", "order_id", id)

	o, err := service.ProcessOrder(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.OrderToResponse(o))
}
