package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/album-market/internal/gateway/middleware"
	notification_http "github.com/saransh1220/album-market/internal/modules/notification/interfaces/http"
	order_http "github.com/saransh1220/album-market/internal/modules/order/interfaces/http"
)

const RoleAdmin = "admin"

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	AuthMiddleware      *middleware.AuthMiddleWare
	OrderHandler        *order_http.OrderHandler
	WebhookHandler      *order_http.WebhookHandler
	NotificationHandler *notification_http.NotificationHandler
	AllowedOrigins      string
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()
	auth := config.AuthMiddleware.RequireAuth
	admin := func(h http.HandlerFunc) http.Handler {
		return auth(config.AuthMiddleware.RequireRole(RoleAdmin)(h))
	}

	// Health Check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	mux.Handle("GET /metrics", promhttp.Handler())

	// Order Routes
	mux.Handle("POST /orders", auth(http.HandlerFunc(config.OrderHandler.Create)))
	mux.Handle("GET /orders", admin(config.OrderHandler.List))
	mux.Handle("GET /orders/{id}", auth(http.HandlerFunc(config.OrderHandler.Get)))
	mux.Handle("DELETE /orders/{id}", auth(http.HandlerFunc(config.OrderHandler.Delete)))
	mux.Handle("POST /orders/{id}/retry", auth(http.HandlerFunc(config.OrderHandler.Retry)))
	mux.Handle("POST /orders/{id}/complete", admin(config.OrderHandler.Complete))
	mux.Handle("GET /purchases", auth(http.HandlerFunc(config.OrderHandler.Purchases)))

	// Gateway callbacks authenticate by signature, not by bearer token.
	mux.HandleFunc("POST /payments/webhook", config.WebhookHandler.Handle)

	// Notification Routes
	mux.Handle("GET /notifications", auth(http.HandlerFunc(config.NotificationHandler.ListNotifications)))
	mux.Handle("PATCH /notifications/{id}/read", auth(http.HandlerFunc(config.NotificationHandler.MarkAsRead)))
	mux.Handle("PATCH /notifications/read-all", auth(http.HandlerFunc(config.NotificationHandler.MarkAllAsRead)))
	mux.Handle("GET /notifications/unread-count", auth(http.HandlerFunc(config.NotificationHandler.UnreadCount)))
	mux.Handle("GET /ws", auth(http.HandlerFunc(config.NotificationHandler.Subscribe)))

	return mux
}

// NewHandler wraps the routes with the CORS and metrics middleware.
func NewHandler(config RouterConfig) http.Handler {
	return middleware.CORSMiddleware(middleware.PrometheusMiddleware(SetupRoutes(config)), config.AllowedOrigins)
}
