package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/corray333/backend-labs/reservation/internal/service/models/order"
	"github.com/corray333/backend-labs/reservation/internal/service/services/ordersvc"
	_ "github.com/corray333/backend-labs/reservation/internal/transport/http/docs"
	createorder "github.com/corray333/backend-labs/reservation/internal/transport/http/v1/create_order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/dashboard"
	getorder "github.com/corray333/backend-labs/reservation/internal/transport/http/v1/get_order"
	listorders "github.com/corray333/backend-labs/reservation/internal/transport/http/v1/list_orders"
	processorder "github.com/corray333/backend-labs/reservation/internal/transport/http/v1/process_order"
	"github.com/corray333/backend-labs/reservation/internal/transport/http/v1/respond"
	updatestatus "github.com/corray333/backend-labs/reservation/internal/transport/http/v1/update_status"
	"github.com/corray333/backend-labs/reservation/pkg/http/middleware/trace"
	"github.com/corray333/backend-labs/reservation/pkg/logger"
)

type service interface {
	CreateOrder(ctx context.Context, in ordersvc.CreateOrderInput) (*order.Order, bool, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
	ListOrders(ctx context.Context, model order.QueryOrdersModel) ([]*order.Order, error)
	GetOrdersByCustomer(ctx context.Context, customerID string) ([]*order.Order, error)
	GetOrdersByStatus(ctx context.Context, status order.Status) ([]*order.Order, error)
	ProcessOrder(ctx context.Context, id uuid.UUID) (*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status order.Status, reason string) (*order.Order, error)
	Summary(ctx context.Context) (order.Summary, error)
}

type HTTPTransport struct {
	server  *http.Server
	router  *chi.Mux
	service service
}

func NewHTTPTransport(service service) *HTTPTransport {
	router := newRouter()
	server := newServer(router)

	return &HTTPTransport{
		server:  server,
		router:  router,
		service: service,
	}
}

// Handler returns the router.
func (h *HTTPTransport) Handler() http.Handler {
	return h.router
}

func (h *HTTPTransport) Run() error {
	slog.Info("HTTP server listening", "addr", h.server.Addr)

	return h.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Get("/healthz", healthz)
	h.router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	h.router.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.createOrder)
			r.Get("/", h.listOrders)
			r.Get("/customer/{customerId}", h.ordersByCustomer)
			r.Get("/status/{status}", h.ordersByStatus)
			r.Get("/{id}", h.getOrder)
			r.Post("/{id}/process", h.processOrder)
			r.Patch("/{id}/status", h.updateStatus)
		})

		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/order-summary", h.orderSummary)
			r.Get("/pending-reservations", h.pendingReservations)
			r.Get("/invalid-orders", h.invalidOrders)
		})
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.service)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.service)
}

func (h *HTTPTransport) ordersByCustomer(w http.ResponseWriter, r *http.Request) {
	listorders.ByCustomer(w, r, h.service)
}

func (h *HTTPTransport) ordersByStatus(w http.ResponseWriter, r *http.Request) {
	listorders.ByStatus(w, r, h.service)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.service)
}

func (h *HTTPTransport) processOrder(w http.ResponseWriter, r *http.Request) {
	processorder.ProcessOrder(w, r, h.service)
}

func (h *HTTPTransport) updateStatus(w http.ResponseWriter, r *http.Request) {
	updatestatus.UpdateStatus(w, r, h.service)
}

func (h *HTTPTransport) orderSummary(w http.ResponseWriter, r *http.Request) {
	dashboard.OrderSummary(w, r, h.service)
}

func (h *HTTPTransport) pendingReservations(w http.ResponseWriter, r *http.Request) {
	dashboard.PendingReservations(w, r, h.service)
}

func (h *HTTPTransport) invalidOrders(w http.ResponseWriter, r *http.Request) {
	dashboard.InvalidOrders(w, r, h.service)
}

func healthz(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, r, http.StatusOK, map[string]string{"status": "UP"})
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	port := viper.GetString("server.http.port")
	if port == "" {
		port = "8080"
	}

	return &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
