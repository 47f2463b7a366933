package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders committed in pending state.",
	})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions applied.",
	}, []string{"from", "to"})

	ordersExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_expired_total",
		Help: "Pending orders cancelled by the expiry sweeper.",
	})

	ordersPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_purged_total",
		Help: "Cancelled orders deleted by the retention reaper.",
	})
)
