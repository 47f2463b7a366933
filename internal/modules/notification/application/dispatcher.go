package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/saransh1220/album-market/internal/modules/notification/domain"
	orderDomain "github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/saransh1220/album-market/internal/shared/utils"
)

var completionNotices = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "order_completion_notices_total",
	Help: "Order completion notices by outcome",
}, []string{"outcome"})

type completion struct {
	order orderDomain.Order
}

// Dispatcher queues order completion notices and delivers them on a background
// worker: an in-app notification, a websocket push and an e-mail. Delivery is
// at most once; a full queue drops the notice.
type Dispatcher struct {
	queue         chan completion
	notifications *NotificationService
	recipients    domain.RecipientRepository
	mailer        domain.Mailer
	logger        *slog.Logger
}

// NewDispatcher builds a dispatcher. recipients and mailer may be nil to skip e-mail.
func NewDispatcher(notifications *NotificationService, recipients domain.RecipientRepository, mailer domain.Mailer, size int, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if size < 1 {
		size = 1
	}
	return &Dispatcher{
		queue:         make(chan completion, size),
		notifications: notifications,
		recipients:    recipients,
		mailer:        mailer,
		logger:        logger.With("component", "completion_dispatcher"),
	}
}

// NotifyOrderComplete enqueues without blocking.
func (d *Dispatcher) NotifyOrderComplete(_ context.Context, order *orderDomain.Order) error {
	select {
	case d.queue <- completion{order: *order}:
		completionNotices.WithLabelValues("queued").Inc()
		return nil
	default:
		completionNotices.WithLabelValues("dropped").Inc()
		return domain.ErrDispatchQueueFull
	}
}

// Run delivers queued notices until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("completion dispatcher started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("completion dispatcher stopped", "pending", len(d.queue))
			return nil
		case c := <-d.queue:
			d.deliver(ctx, c)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, c completion) {
	o := c.order
	title := "Order complete"
	message := fmt.Sprintf("Your order %s for %s %s is complete. %d album(s) are now in your library.",
		o.ID, o.Total.StringFixed(2), o.Currency, len(o.Items.DistinctRefs()))

	if _, err := d.notifications.Create(ctx, o.OwnerID, title, message, domain.NotificationTypeSuccess); err != nil {
		completionNotices.WithLabelValues("failed").Inc()
		d.logger.Error("completion notification not stored", "order_id", o.ID, "error", err)
	}

	if d.mailer == nil || d.recipients == nil {
		completionNotices.WithLabelValues("delivered").Inc()
		return
	}
	to, err := d.recipients.GetRecipient(ctx, o.OwnerID)
	if err != nil {
		completionNotices.WithLabelValues("failed").Inc()
		d.logger.Warn("completion email skipped", "order_id", o.ID, "owner_id", o.OwnerID, "error", err)
		return
	}
	if !utils.IsValidEmail(to.Email) {
		completionNotices.WithLabelValues("invalid_recipient").Inc()
		d.logger.Warn("completion email skipped, invalid address", "order_id", o.ID, "owner_id", o.OwnerID)
		return
	}
	if err := d.mailer.Send(ctx, *to, title, message); err != nil {
		completionNotices.WithLabelValues("failed").Inc()
		d.logger.Error("completion email failed", "order_id", o.ID, "error", err)
		return
	}
	completionNotices.WithLabelValues("delivered").Inc()
	d.logger.Info("completion notice delivered", "order_id", o.ID, "owner_id", o.OwnerID)
}
