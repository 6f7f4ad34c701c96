package respond

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not found", err: fmt.Errorf("load: %w", order.ErrNotFound), want: http.StatusNotFound},
		{name: "invalid item", err: order.ErrInvalidItem, want: http.StatusBadRequest},
		{name: "unknown status", err: order.ErrUnknownStatus, want: http.StatusBadRequest},
		{name: "invalid transition", err: order.ErrInvalidTransition, want: http.StatusConflict},
		{
			name: "creation in progress",
			err:  fmt.Errorf("%w: idempotency key %q", order.ErrCreationInProgress, "k"),
			want: http.StatusConflict,
		},
		{name: "unexpected", err: errors.New("connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
