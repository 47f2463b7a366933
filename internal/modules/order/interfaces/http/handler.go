package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/gateway/middleware"
	"github.com/saransh1220/album-market/internal/modules/order/application"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/saransh1220/album-market/internal/shared/utils"
)

const maxIdempotencyKeyLen = 128

type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

func NewOrderHandler(service OrderService, logger *slog.Logger) *OrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderHandler{service: service, logger: logger.With("component", "order_handler")}
}

// Create handles POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if len(key) > maxIdempotencyKeyLen {
		utils.WriteError(w, http.StatusBadRequest, "idempotency key too long", nil)
		return
	}

	result, err := h.service.CreateOrder(r.Context(), application.CreateOrderInput{
		OwnerID:        requester.UserID,
		Items:          req.Items,
		Subtotal:       req.Subtotal,
		TaxRate:        req.TaxRate,
		Total:          req.Total,
		IdempotencyKey: key,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, result)
}

// List handles GET /orders (admin only)
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	utils.WriteJSON(w, http.StatusOK, OrderListResponse{Orders: orders, Count: len(orders)})
}

// Get handles GET /orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	requester, id, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}
	order, err := h.service.GetOrder(r.Context(), id, requester)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, OrderResponse{Order: order})
}

// Delete handles DELETE /orders/{id}
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester, id, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteOrder(r.Context(), id, requester); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"msg": "order deleted"})
}

// Retry handles POST /orders/{id}/retry
func (h *OrderHandler) Retry(w http.ResponseWriter, r *http.Request) {
	requester, id, ok := h.requesterAndID(w, r)
	if !ok {
		return
	}
	result, err := h.service.RetryPayment(r.Context(), id, requester)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, result)
}

// Complete handles POST /orders/{id}/complete (admin only)
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid order id", nil)
		return
	}
	order, err := h.service.CompleteOrder(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, OrderResponse{Order: order})
}

// Purchases handles GET /purchases
func (h *OrderHandler) Purchases(w http.ResponseWriter, r *http.Request) {
	requester, ok := requesterFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	grants, err := h.service.ListPurchases(r.Context(), requester.UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if grants == nil {
		grants = []domain.PurchaseGrant{}
	}
	utils.WriteJSON(w, http.StatusOK, PurchaseListResponse{Purchases: grants, Count: len(grants)})
}

func (h *OrderHandler) requesterAndID(w http.ResponseWriter, r *http.Request) (domain.Requester, uuid.UUID, bool) {
	requester, ok := requesterFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return domain.Requester{}, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid order id", nil)
		return domain.Requester{}, uuid.Nil, false
	}
	return requester, id, true
}

func requesterFrom(r *http.Request) (domain.Requester, bool) {
	userID, ok := r.Context().Value(middleware.ContextKeyUserId).(uuid.UUID)
	if !ok {
		return domain.Requester{}, false
	}
	role, _ := r.Context().Value(middleware.ContextKeyRole).(string)
	return domain.Requester{UserID: userID, Role: role}, true
}

func (h *OrderHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("order request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.WriteError(w, status, msg, nil)
		return
	}
	utils.WriteError(w, status, msg, err)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid order"
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "order state conflict"
	case errors.Is(err, domain.ErrPaymentRejected):
		return http.StatusPaymentRequired, "payment rejected"
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusBadGateway, "payment gateway unavailable"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "order store unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
