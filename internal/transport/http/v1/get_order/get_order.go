package getorder

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/converters"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/respond"
)

type service interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
}

// ParseOrderID reads the {id} path parameter.
func ParseOrderID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

// GetOrder returns a single order.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	id, err := ParseOrderID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	o, err := service.GetOrder(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.OrderToResponse(o))
}
