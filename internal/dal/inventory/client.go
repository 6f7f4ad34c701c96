package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"

	"github.com/corray333/backend-labs/reservation/internal/service/models/reservation"
)

const maxErrorBody = 4 << 10

// Client calls the inventory service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type option func(*Client)

// WithHTTPClient replaces the default http.Client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithHTTPClient(c *http.Client) option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates an inventory client for baseURL.
func NewClient(baseURL string, opts ...option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// MustNewClient creates a client from the inventory.url setting.
func MustNewClient() *Client {
	baseURL := viper.GetString("inventory.url")
	if baseURL == "" {
		panic("inventory.url is not set in config")
	}

	return NewClient(baseURL)
}

// Reserve posts req to {baseURL}/reserve.
// 4xx answers are non-retryable; 5xx, transport and decoding failures are retryable.
func (c *Client) Reserve(ctx context.Context, req reservation.Request) (reservation.Outcome, error) {
	ctx, span := otel.Tracer("inventory-client").Start(ctx, "Client.Reserve")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", req.OrderID.String()))

	body, err := json.Marshal(req)
	if err != nil {
		return reservation.Outcome{}, reservation.NewPermanent(0, "failed to encode request: "+err.Error())
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reserve", bytes.NewReader(body))
	if err != nil {
		return reservation.Outcome{}, reservation.NewPermanent(0, "failed to build request: "+err.Error())
	}
	httpReq.Header.Set("Content-Type", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")

		return reservation.Outcome{}, reservation.NewRetryable(http.StatusInternalServerError,
			"failed to communicate with inventory service: "+err.Error(), err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		span.SetStatus(codes.Error, detail)

		if resp.StatusCode < http.StatusInternalServerError {
			return reservation.Outcome{}, reservation.NewPermanent(resp.StatusCode,
				"client error when calling inventory service: "+detail)
		}

		return reservation.Outcome{}, reservation.NewRetryable(resp.StatusCode,
			"server error when calling inventory service: "+detail, nil)
	}

	var outcome reservation.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		return reservation.Outcome{}, reservation.NewRetryable(http.StatusInternalServerError,
			"failed to decode inventory response: "+err.Error(), err)
	}

	return outcome, nil
}
