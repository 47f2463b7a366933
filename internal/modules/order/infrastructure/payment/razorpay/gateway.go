package razorpay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	rzp "github.com/razorpay/razorpay-go"
	rzperrors "github.com/razorpay/razorpay-go/errors"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

const requestTimeout = 10 * time.Second

// errRejectedResponse marks a reply that carried an error object instead of an order.
var errRejectedResponse = errors.New("razorpay returned an error response")

var gatewayCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "payment_gateway_calls_total",
	Help: "Razorpay order API calls by result",
}, []string{"result"})

type Config struct {
	KeyID       string
	KeySecret   string
	MaxAttempts int
	BaseDelay   time.Duration
}

// Gateway creates Razorpay orders as payment intents. The intent idempotency key is
// sent as the Razorpay receipt, and an existing order with that receipt is reused.
type Gateway struct {
	client      *rzp.Client
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	client := rzp.NewClient(cfg.KeyID, cfg.KeySecret)
	client.Request.HTTPClient = &http.Client{
		Timeout:   requestTimeout,
		Transport: statusTransport{base: http.DefaultTransport},
	}
	return &Gateway{
		client:      client,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		logger:      logger.With("component", "razorpay_gateway"),
	}
}

// CreateIntent returns the Razorpay order for req.IdempotencyKey, creating it if needed.
// Transport, server and gateway failures are retried with exponential backoff. A
// request Razorpay refuses as invalid fails at once with ErrPaymentRejected.
func (g *Gateway) CreateIntent(ctx context.Context, req domain.IntentRequest) (*domain.PaymentIntent, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrPaymentRejected)
	}
	if req.Currency == "" || req.IdempotencyKey == "" {
		return nil, fmt.Errorf("%w: currency and receipt are required", domain.ErrPaymentRejected)
	}

	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := g.baseDelay * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, ctx.Err())
			}
		}

		intent, err := g.createOnce(req)
		if err == nil {
			gatewayCalls.WithLabelValues("ok").Inc()
			return intent, nil
		}
		if !retryable(err) {
			gatewayCalls.WithLabelValues("rejected").Inc()
			g.logger.Warn("razorpay rejected order", "receipt", req.IdempotencyKey, "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrPaymentRejected, err)
		}
		lastErr = err
		gatewayCalls.WithLabelValues("error").Inc()
		g.logger.Warn("razorpay order call failed",
			"receipt", req.IdempotencyKey,
			"attempt", attempt+1,
			"error", err,
		)
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, lastErr)
}

func (g *Gateway) createOnce(req domain.IntentRequest) (*domain.PaymentIntent, error) {
	if existing, err := g.findByReceipt(req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	notes := make(map[string]interface{}, len(req.Metadata))
	for k, v := range req.Metadata {
		notes[k] = v
	}
	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.IdempotencyKey,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, err
	}
	if _, hasErr := body["error"]; hasErr || len(body) == 0 {
		return nil, errRejectedResponse
	}
	return intentFrom(body)
}

func (g *Gateway) findByReceipt(receipt string) (*domain.PaymentIntent, error) {
	body, err := g.client.Order.All(map[string]interface{}{"receipt": receipt, "count": 1}, nil)
	if err != nil {
		return nil, err
	}
	items, _ := body["items"].([]interface{})
	if len(items) == 0 {
		return nil, nil
	}
	order, ok := items[0].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected order list entry")
	}
	return intentFrom(order)
}

// intentFrom maps a Razorpay order. Checkout needs only the order id, so it doubles as the client secret.
func intentFrom(order map[string]interface{}) (*domain.PaymentIntent, error) {
	id, _ := order["id"].(string)
	if id == "" {
		return nil, errors.New("razorpay order without id")
	}
	return &domain.PaymentIntent{IntentID: id, ClientSecret: id}, nil
}

// retryable reports whether another attempt may succeed. Bad requests and error
// replies are final; server, gateway and transport failures are not.
func retryable(err error) bool {
	var badRequest *rzperrors.BadRequestError
	if errors.As(err, &badRequest) || errors.Is(err, errRejectedResponse) {
		return false
	}
	return true
}

// upstreamStatusError is a 5xx or 429 reply, surfaced as a transport failure.
type upstreamStatusError struct {
	status int
}

func (e *upstreamStatusError) Error() string {
	return fmt.Sprintf("razorpay responded %d %s", e.status, http.StatusText(e.status))
}

// statusTransport turns 5xx and 429 replies into transport errors. The SDK
// reports any error body without an internal_error_code as a bad request.
type statusTransport struct {
	base http.RoundTripper
}

func (t statusTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &upstreamStatusError{status: resp.StatusCode}
	}
	return resp, nil
}
