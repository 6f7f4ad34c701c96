package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corray333/backend-labs/reservation/internal/service/models/reservation"
)

func TestClient_Reserve_Success(t *testing.T) {
	orderID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/inventory/reserve", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req reservation.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, orderID, req.OrderID)
		assert.Len(t, req.Items, 1)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId": orderID,
			"success": true,
			"message": "reserved",
			"items": []map[string]any{
				{"productId": "p-1", "quantity": 2, "available": true, "message": "ok"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/inventory/")
	out, err := c.Reserve(context.Background(), reservation.Request{
		OrderID: orderID,
		Items:   []reservation.Item{{ProductID: "p-1", Quantity: 2}},
	})

	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "reserved", out.Message)
	assert.False(t, out.Degraded)
	require.Len(t, out.Items, 1)
	assert.True(t, out.Items[0].Available)
}

func TestClient_Reserve_Classification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{name: "bad request", status: http.StatusBadRequest, body: "malformed", retryable: false},
		{name: "unprocessable", status: http.StatusUnprocessableEntity, body: "rejected", retryable: false},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", retryable: true},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: "", retryable: true},
		{name: "garbage body", status: http.StatusOK, body: "{not json", retryable: true},
		{name: "empty body", status: http.StatusOK, body: "", retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).Reserve(context.Background(), reservation.Request{OrderID: uuid.New()})

			var callErr *reservation.CallError
			require.ErrorAs(t, err, &callErr)
			assert.Equal(t, tt.retryable, callErr.Retryable)
			if tt.status >= http.StatusBadRequest {
				assert.Equal(t, tt.status, callErr.StatusCode)
				assert.Contains(t, callErr.Detail, tt.body)
			}
		})
	}
}

func TestClient_Reserve_TransportErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Reserve(context.Background(), reservation.Request{OrderID: uuid.New()})

	var callErr *reservation.CallError
	require.ErrorAs(t, err, &callErr)
	assert.True(t, callErr.Retryable)
	assert.Equal(t, http.StatusInternalServerError, callErr.StatusCode)
}

func TestClient_Reserve_TimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL).Reserve(ctx, reservation.Request{OrderID: uuid.New()})

	assert.True(t, reservation.IsRetryable(err))
}
