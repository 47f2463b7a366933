package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrUnhandledEvent marks webhook events that carry no payment outcome.
	ErrUnhandledEvent = errors.New("unhandled webhook event")
)

// Signature returns the hex HMAC-SHA256 of body, as sent in X-Razorpay-Signature.
func Signature(body []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func VerifySignature(body []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(Signature(body, secret)), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ParseEvent maps payment.captured, order.paid and payment.failed webhooks to a PaymentEvent.
func ParseEvent(body []byte) (domain.PaymentEvent, error) {
	var env webhookEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.PaymentEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	var ev domain.PaymentEvent
	switch env.Event {
	case "payment.captured", "order.paid":
		ev.Outcome = domain.PaymentSucceeded
	case "payment.failed":
		ev.Outcome = domain.PaymentFailed
	default:
		return domain.PaymentEvent{}, fmt.Errorf("%w: %q", ErrUnhandledEvent, env.Event)
	}

	if p := env.Payload.Payment; p != nil {
		ev.PaymentID = p.Entity.ID
		ev.IntentID = p.Entity.OrderID
	}
	if ev.IntentID == "" && env.Payload.Order != nil {
		ev.IntentID = env.Payload.Order.Entity.ID
	}
	if ev.IntentID == "" {
		return domain.PaymentEvent{}, fmt.Errorf("%w: webhook without order id", domain.ErrInvalidInput)
	}
	return ev, nil
}
