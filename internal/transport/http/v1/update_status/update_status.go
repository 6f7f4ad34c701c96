package updatestatus

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/converters"
	getorder "github.com/corray333/backend-labs/reservation/internal/transport/http/v1/get_order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/respond"
)

var validate = validator.New()

type service interface {
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status order.Status, reason string) (*order.Order, error)
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"max=1024"`
}

// UpdateStatus applies an administrative status change.
func UpdateStatus(w http.ResponseWriter, r *http.Request, service service) {
	id, err := getorder.ParseOrderID(r)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)

		return
	}

	req := updateStatusRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for status update", "error", err)

		return
	}
	if err := validate.Struct(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	o, err := service.UpdateOrderStatus(r.Context(), id, status, req.Reason)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, r, http.StatusOK, converters.OrderToResponse(o))
}
