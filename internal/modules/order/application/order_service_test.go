package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
	"github.com/saransh1220/album-market/internal/shared/clock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

type harness struct {
	svc      *OrderService
	store    *memStore
	gateway  *fakeGateway
	notifier *countingNotifier
}

func newHarness(autoFulfil bool) *harness {
	store := newMemStore()
	gw := newFakeGateway()
	n := &countingNotifier{}
	svc := NewOrderService(store, store, store, gw, n, clock.NewFixed(t0), Config{Currency: "INR", AutoFulfil: autoFulfil}, nil)
	return &harness{svc: svc, store: store, gateway: gw, notifier: n}
}

func cart(owner uuid.UUID, refs ...uuid.UUID) CreateOrderInput {
	items := make(domain.Items, 0, len(refs))
	for _, r := range refs {
		items = append(items, domain.Item{ItemRef: r, Quantity: 1})
	}
	return CreateOrderInput{
		OwnerID:  owner,
		Items:    items,
		Subtotal: decimal.RequireFromString("10.00"),
		TaxRate:  decimal.RequireFromString("0.18"),
		Total:    decimal.RequireFromString("11.80"),
	}
}

func TestCreateOrder_HappyPath(t *testing.T) {
	h := newHarness(false)
	owner := uuid.New()
	a, b := uuid.New(), uuid.New()

	res, err := h.svc.CreateOrder(context.Background(), cart(owner, a, b))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, res.Order.Status)
	assert.NotEmpty(t, res.ClientSecret)
	require.NotNil(t, res.Order.PaymentIntentID)

	stored, err := h.store.GetByID(context.Background(), res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, *res.Order.PaymentIntentID, *stored.PaymentIntentID)
	assert.Equal(t, t0, stored.CreatedAt)

	assert.Equal(t, 2, h.store.grantCount())
	require.Equal(t, 1, h.gateway.callCount())
	req := h.gateway.calls[0]
	assert.Equal(t, int64(1180), req.AmountMinor)
	assert.Equal(t, "INR", req.Currency)
	assert.Equal(t, res.Order.ID.String(), req.IdempotencyKey)
	assert.Equal(t, "2", req.Metadata["totalItems"])
	assert.Equal(t, int32(0), h.notifier.count.Load())
}

func TestCreateOrder_EmptyItemsWritesNothing(t *testing.T) {
	h := newHarness(false)

	in := cart(uuid.New())
	_, err := h.svc.CreateOrder(context.Background(), in)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, h.store.orderCount())
	assert.Equal(t, 0, h.store.grantCount())
	assert.Equal(t, 0, h.gateway.callCount())
}

func TestCreateOrder_TotalMismatchRejectedBeforeWrites(t *testing.T) {
	h := newHarness(false)
	in := cart(uuid.New(), uuid.New())
	in.Total = decimal.RequireFromString("12.00")

	_, err := h.svc.CreateOrder(context.Background(), in)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, h.store.orderCount())
	assert.Equal(t, 0, h.gateway.callCount())
}

func TestCreateOrder_ZeroTotalRejectedBeforeGateway(t *testing.T) {
	h := newHarness(false)
	in := cart(uuid.New(), uuid.New())
	in.Subtotal, in.Total = decimal.Zero, decimal.Zero

	_, err := h.svc.CreateOrder(context.Background(), in)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrPaymentRejected)
	assert.Equal(t, 0, h.store.orderCount())
	assert.Equal(t, 0, h.gateway.callCount())
}

func TestCreateOrder_GatewayFailureRollsBackEverything(t *testing.T) {
	for _, gwErr := range []error{domain.ErrGatewayUnavailable, domain.ErrPaymentRejected} {
		t.Run(gwErr.Error(), func(t *testing.T) {
			h := newHarness(false)
			h.gateway.err = gwErr

			_, err := h.svc.CreateOrder(context.Background(), cart(uuid.New(), uuid.New(), uuid.New()))

			assert.ErrorIs(t, err, gwErr)
			assert.Equal(t, 0, h.store.orderCount())
			assert.Equal(t, 0, h.store.grantCount())
		})
	}
}

func TestCreateOrder_StoreFailureSurfacesTyped(t *testing.T) {
	h := newHarness(false)
	h.store.createErr = domain.ErrStoreUnavailable

	_, err := h.svc.CreateOrder(context.Background(), cart(uuid.New(), uuid.New()))

	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 0, h.gateway.callCount())
}

func TestCreateOrder_GrantsGrowByDistinctNewItemsOnly(t *testing.T) {
	h := newHarness(false)
	owner := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	_, err := h.svc.CreateOrder(context.Background(), cart(owner, a, b))
	require.NoError(t, err)
	assert.Equal(t, 2, h.store.grantCount())

	_, err = h.svc.CreateOrder(context.Background(), cart(owner, b, c, c))
	require.NoError(t, err)
	assert.Equal(t, 3, h.store.grantCount())

	grants, err := h.svc.ListPurchases(context.Background(), owner)
	require.NoError(t, err)
	assert.Len(t, grants, 3)
}

func TestCreateOrder_IdempotencyKeyReturnsSameOrder(t *testing.T) {
	h := newHarness(false)
	in := cart(uuid.New(), uuid.New())
	in.IdempotencyKey = "checkout-42"

	first, err := h.svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)
	second, err := h.svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, second.Order.ID)
	assert.Equal(t, first.ClientSecret, second.ClientSecret)
	assert.Equal(t, 1, h.store.orderCount())
}

func TestCreateOrder_ConcurrentSameKeyCreatesOneOrder(t *testing.T) {
	h := newHarness(false)
	in := cart(uuid.New(), uuid.New())
	in.IdempotencyKey = "double-click"

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 5)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := h.svc.CreateOrder(context.Background(), in)
			if assert.NoError(t, err) {
				ids[i] = res.Order.ID
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, h.store.orderCount())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestCreateOrder_ConcurrentCartsStayConsistent(t *testing.T) {
	h := newHarness(false)
	owner := uuid.New()
	shared := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.CreateOrder(context.Background(), cart(owner, shared, uuid.New()))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, h.store.orderCount())
	assert.Equal(t, 11, h.store.grantCount())
	orders, _ := h.store.List(context.Background())
	for _, o := range orders {
		assert.NotNil(t, o.PaymentIntentID)
	}
}

func TestGetOrder_Access(t *testing.T) {
	h := newHarness(false)
	owner := uuid.New()
	res, err := h.svc.CreateOrder(context.Background(), cart(owner, uuid.New()))
	require.NoError(t, err)
	id := res.Order.ID

	_, err = h.svc.GetOrder(context.Background(), id, domain.Requester{UserID: owner, Role: "user"})
	assert.NoError(t, err)

	_, err = h.svc.GetOrder(context.Background(), id, domain.Requester{UserID: uuid.New(), Role: "user"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = h.svc.GetOrder(context.Background(), id, domain.Requester{UserID: uuid.New(), Role: domain.RoleAdmin})
	assert.NoError(t, err)

	_, err = h.svc.GetOrder(context.Background(), uuid.New(), domain.Requester{UserID: owner})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestDeleteOrder_KeepsGrants(t *testing.T) {
	h := newHarness(false)
	owner := uuid.New()
	res, err := h.svc.CreateOrder(context.Background(), cart(owner, uuid.New(), uuid.New()))
	require.NoError(t, err)

	err = h.svc.DeleteOrder(context.Background(), res.Order.ID, domain.Requester{UserID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, h.svc.DeleteOrder(context.Background(), res.Order.ID, domain.Requester{UserID: owner}))
	assert.Equal(t, 0, h.store.orderCount())
	assert.Equal(t, 2, h.store.grantCount())

	err = h.svc.DeleteOrder(context.Background(), res.Order.ID, domain.Requester{UserID: owner})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	h := newHarness(false)
	for i := 0; i < 3; i++ {
		_, err := h.svc.CreateOrder(context.Background(), cart(uuid.New(), uuid.New()))
		require.NoError(t, err)
	}

	orders, err := h.svc.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestCreateOrder_PropagatesUnexpectedLookupError(t *testing.T) {
	h := newHarness(false)
	in := cart(uuid.New(), uuid.New())
	in.IdempotencyKey = "k"
	h.svc.orders = failingLookup{memStore: h.store}

	_, err := h.svc.CreateOrder(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 0, h.gateway.callCount())
}

type failingLookup struct{ *memStore }

func (failingLookup) GetByIdempotencyKey(context.Context, uuid.UUID, string) (*domain.Order, error) {
	return nil, domain.ErrStoreUnavailable
}

func TestCreateOrder_RetryAfterFailedAttachReusesIntent(t *testing.T) {
	h := newHarness(false)
	h.svc.orders = &flakyAttach{memStore: h.store, failures: 1}
	owner := uuid.New()
	in := cart(owner, uuid.New())
	in.IdempotencyKey = "checkout-77"

	_, err := h.svc.CreateOrder(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 0, h.store.orderCount())

	res, err := h.svc.CreateOrder(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderID(owner, "checkout-77"), res.Order.ID)
	assert.Equal(t, 2, h.gateway.callCount())
	assert.Equal(t, 1, h.gateway.intentCount())
	assert.Equal(t, 1, h.store.orderCount())
}

// flakyAttach fails the first AttachIntent calls after the intent was issued.
type flakyAttach struct {
	*memStore
	failures int
}

func (f *flakyAttach) AttachIntent(ctx context.Context, id uuid.UUID, intentID string, at time.Time) error {
	if f.failures > 0 {
		f.failures--
		return domain.ErrStoreUnavailable
	}
	return f.memStore.AttachIntent(ctx, id, intentID, at)
}
