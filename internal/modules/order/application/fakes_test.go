package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/saransh1220/album-market/internal/modules/order/domain"
)

type grantKey struct{ owner, item uuid.UUID }

type inTxKey struct{}

// memStore is an in-memory OrderRepository, GrantRepository and UnitOfWork.
// WithinTx serialises transactions and restores the previous state on error.
type memStore struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	orders map[uuid.UUID]domain.Order
	grants map[grantKey]domain.PurchaseGrant

	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		orders: map[uuid.UUID]domain.Order{},
		grants: map[grantKey]domain.PurchaseGrant{},
	}
}

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	orders := make(map[uuid.UUID]domain.Order, len(m.orders))
	for k, v := range m.orders {
		orders[k] = v
	}
	grants := make(map[grantKey]domain.PurchaseGrant, len(m.grants))
	for k, v := range m.grants {
		grants[k] = v
	}
	m.mu.Unlock()

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		m.mu.Lock()
		m.orders, m.grants = orders, grants
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) Create(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if o.IdempotencyKey != nil {
		for _, existing := range m.orders {
			if existing.OwnerID == o.OwnerID && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *o.IdempotencyKey {
				return domain.ErrConflict
			}
		}
	}
	m.orders[o.ID] = *o
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (m *memStore) GetByIdempotencyKey(_ context.Context, ownerID uuid.UUID, key string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.OwnerID == ownerID && o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *memStore) GetByIntentID(_ context.Context, intentID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *memStore) List(context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memStore) AttachIntent(_ context.Context, id uuid.UUID, intentID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.PaymentIntentID != nil {
		if *o.PaymentIntentID == intentID {
			return nil
		}
		return domain.ErrConflict
	}
	o.PaymentIntentID = &intentID
	o.UpdatedAt = at
	m.orders[id] = o
	return nil
}

func (m *memStore) TransitionStatus(_ context.Context, id uuid.UUID, from, to domain.Status, at time.Time) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if o.Status != from {
		return nil, domain.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = at
	if to == domain.StatusCancelled {
		o.CancelledAt = &at
	}
	m.orders[id] = o
	return &o, nil
}

// CancelStalePending outside a transaction waits for the running one, as the
// UPDATE would wait on its row locks.
func (m *memStore) CancelStalePending(ctx context.Context, cutoff, at time.Time) (int64, error) {
	if ctx.Value(inTxKey{}) == nil {
		m.txMu.Lock()
		defer m.txMu.Unlock()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, o := range m.orders {
		if o.Status == domain.StatusPending && !o.CreatedAt.After(cutoff) {
			o.Status = domain.StatusCancelled
			o.CancelledAt = &at
			o.UpdatedAt = at
			m.orders[id] = o
			n++
		}
	}
	return n, nil
}

func (m *memStore) PurgeCancelledBefore(_ context.Context, cutoff time.Time) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var purged []domain.Order
	for id, o := range m.orders {
		if o.Status == domain.StatusCancelled && o.CancelledAt != nil && !o.CancelledAt.After(cutoff) {
			purged = append(purged, o)
			delete(m.orders, id)
		}
	}
	return purged, nil
}

func (m *memStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memStore) Grant(_ context.Context, ownerID, itemRef uuid.UUID, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := grantKey{ownerID, itemRef}
	if _, ok := m.grants[k]; ok {
		return false, nil
	}
	m.grants[k] = domain.PurchaseGrant{ID: uuid.New(), OwnerID: ownerID, ItemRef: itemRef, CreatedAt: at}
	return true, nil
}

func (m *memStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.PurchaseGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PurchaseGrant
	for k, g := range m.grants {
		if k.owner == ownerID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memStore) orderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *memStore) grantCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.grants)
}

func (m *memStore) put(o domain.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
}

// fakeGateway hands out one intent per idempotency key.
type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*domain.PaymentIntent
	calls   []domain.IntentRequest
	err     error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*domain.PaymentIntent{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, req domain.IntentRequest) (*domain.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	if in, ok := g.intents[req.IdempotencyKey]; ok {
		return in, nil
	}
	in := &domain.PaymentIntent{
		IntentID:     "order_" + req.IdempotencyKey[:8],
		ClientSecret: "secret_" + req.IdempotencyKey[:8],
	}
	g.intents[req.IdempotencyKey] = in
	return in, nil
}

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *fakeGateway) intentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.intents)
}

type countingNotifier struct {
	count atomic.Int32
	last  atomic.Value
}

func (n *countingNotifier) NotifyOrderComplete(_ context.Context, o *domain.Order) error {
	n.count.Add(1)
	n.last.Store(o.ID)
	return nil
}

type stubArchiver struct {
	archived []domain.Order
	err      error
}

func (a *stubArchiver) Archive(_ context.Context, _ time.Time, orders []domain.Order) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, orders...)
	return nil
}
