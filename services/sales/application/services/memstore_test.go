package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ghuser/salesledger/pkg/config"
	"github.com/ghuser/salesledger/pkg/logger"
	"github.com/ghuser/salesledger/services/sales/domain"
	"github.com/ghuser/salesledger/services/sales/domain/models"
	"github.com/ghuser/salesledger/services/sales/domain/repositories"
	domainsvcs "github.com/ghuser/salesledger/services/sales/domain/services"
)

// memStore is an in-memory Transactor with per-row exclusive locks held
// until commit or rollback. Writes are staged in the transaction and only
// become visible on commit.
type memStore struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	orders   map[uuid.UUID]*models.Order
	rowLocks map[uuid.UUID]*sync.Mutex
	topics   []string
	payloads []any
	begins   int
	incs     int

	// failAt names a step that returns a store failure: "insert_order",
	// "decrement", "update_status", "outbox" or "commit".
	failAt string
}

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]*models.Product),
		orders:   make(map[uuid.UUID]*models.Order),
		rowLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func testLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

func (s *memStore) addProduct(name string, price string, stock int) *models.Product {
	p := &models.Product{
		ID:            uuid.New(),
		Name:          models.ProductName(name),
		Category:      "general",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		CreatedBy:     systemActor,
		UpdatedBy:     systemActor,
	}
	s.mu.Lock()
	s.products[p.ID] = p
	s.mu.Unlock()
	return p.Clone()
}

func (s *memStore) stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].StockQuantity
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) publishedTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.topics...)
}

func (s *memStore) publishedPayloads() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.payloads...)
}

func (s *memStore) increments() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.incs
}

// addPendingOrder commits a PENDING order for p without touching stock.
func (s *memStore) addPendingOrder(p *models.Product, qty int) *models.Order {
	b := domainsvcs.NewOrderBuilder()
	if err := b.AddItem(p.ID, qty, p.Price); err != nil {
		panic(err)
	}
	o, err := b.Build("alice")
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.orders[o.ID] = cloneOrder(o)
	s.mu.Unlock()
	return o
}

func (s *memStore) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.rowLocks[id] = l
	}
	return l
}

func (s *memStore) Begin(context.Context) (repositories.Tx, error) {
	s.mu.Lock()
	s.begins++
	s.mu.Unlock()
	return &memTx{
		s:        s,
		held:     make(map[uuid.UUID]*sync.Mutex),
		working:  make(map[uuid.UUID]*models.Product),
		orders:   make(map[uuid.UUID]*models.Order),
		inserted: make(map[uuid.UUID]*models.Product),
		deleted:  make(map[uuid.UUID]bool),
	}, nil
}

func (s *memStore) failure(step string) error {
	if s.failAt == step {
		return fmt.Errorf("%s: %w: injected", step, domain.ErrStoreFailure)
	}
	return nil
}

// GetByID implements repositories.OrderReader.
func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	c := cloneOrder(o)
	for i := range c.Items {
		if p, ok := s.products[c.Items[i].ProductID]; ok {
			c.Items[i].Product = p.Clone()
		}
	}
	return c, nil
}

// List implements repositories.OrderReader.
func (s *memStore) List(_ context.Context, opts repositories.QueryOpts) ([]*models.Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		all = append(all, cloneOrder(o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, opts), len(all), nil
}

// memProducts adapts memStore to repositories.ProductReader.
type memProducts struct{ s *memStore }

func (r memProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return p.Clone(), nil
}

func (r memProducts) List(_ context.Context, opts repositories.QueryOpts) ([]*models.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*models.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		all = append(all, p.Clone())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return page(all, opts), len(all), nil
}

func page[T any](all []T, opts repositories.QueryOpts) []T {
	if opts.Offset >= len(all) {
		return nil
	}
	end := len(all)
	if opts.Limit > 0 && opts.Offset+opts.Limit < end {
		end = opts.Offset + opts.Limit
	}
	return all[opts.Offset:end]
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

type memTx struct {
	s        *memStore
	held     map[uuid.UUID]*sync.Mutex
	working  map[uuid.UUID]*models.Product
	orders   map[uuid.UUID]*models.Order
	inserted map[uuid.UUID]*models.Product
	deleted  map[uuid.UUID]bool
	topics   []string
	payloads []any
	done     bool
}

func (t *memTx) Ledger() repositories.InventoryLedger { return memLedger{t} }
func (t *memTx) Orders() repositories.OrderStore      { return memOrders{t} }
func (t *memTx) Products() repositories.ProductStore  { return memProductStore{t} }
func (t *memTx) Outbox() repositories.Outbox          { return memOutbox{t} }

func (t *memTx) Commit() error {
	if t.done {
		return fmt.Errorf("%w: transaction already closed", domain.ErrStoreFailure)
	}
	defer t.release()
	if err := t.s.failure("commit"); err != nil {
		return err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, p := range t.working {
		if t.deleted[id] {
			delete(t.s.products, id)
			continue
		}
		t.s.products[id] = p.Clone()
	}
	for id, p := range t.inserted {
		t.s.products[id] = p.Clone()
	}
	for id, o := range t.orders {
		t.s.orders[id] = cloneOrder(o)
	}
	t.s.topics = append(t.s.topics, t.topics...)
	t.s.payloads = append(t.s.payloads, t.payloads...)
	return nil
}

func (t *memTx) Rollback() error {
	if !t.done {
		t.release()
	}
	return nil
}

func (t *memTx) release() {
	t.done = true
	for _, l := range t.held {
		l.Unlock()
	}
	t.held = nil
}

type memLedger struct{ t *memTx }

func (l memLedger) LockForUpdate(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := make(map[uuid.UUID]*models.Product, len(ids))
	for _, id := range domainsvcs.LockOrder(ids) {
		if p, ok := l.t.working[id]; ok {
			out[id] = p.Clone()
			continue
		}
		l.t.s.mu.Lock()
		_, exists := l.t.s.products[id]
		l.t.s.mu.Unlock()
		if !exists {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}

		lock := l.t.s.lockFor(id)
		lock.Lock()
		l.t.held[id] = lock

		l.t.s.mu.Lock()
		p, ok := l.t.s.products[id]
		var snapshot *models.Product
		if ok {
			snapshot = p.Clone()
		}
		l.t.s.mu.Unlock()
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		l.t.working[id] = snapshot
		out[id] = snapshot.Clone()
	}
	return out, nil
}

func (l memLedger) Decrement(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := l.t.working[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRowNotLocked, id)
	}
	if err := l.t.s.failure("decrement"); err != nil {
		return err
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	if p.StockQuantity < qty {
		return &domain.InsufficientStockError{ProductID: id, ProductName: p.Name.String(), Available: p.StockQuantity, Requested: qty}
	}
	p.StockQuantity -= qty
	return nil
}

func (l memLedger) Increment(_ context.Context, id uuid.UUID, qty int) error {
	p, ok := l.t.working[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRowNotLocked, id)
	}
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	l.t.s.mu.Lock()
	l.t.s.incs++
	l.t.s.mu.Unlock()
	p.StockQuantity += qty
	return nil
}

type memOrders struct{ t *memTx }

func (o memOrders) Insert(_ context.Context, order *models.Order) error {
	if err := o.t.s.failure("insert_order"); err != nil {
		return err
	}
	o.t.orders[order.ID] = cloneOrder(order)
	return nil
}

func (o memOrders) UpdateStatus(_ context.Context, order *models.Order) error {
	if err := o.t.s.failure("update_status"); err != nil {
		return err
	}
	staged, ok := o.t.orders[order.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrOrderNotFound, order.ID)
	}
	staged.Status = order.Status
	staged.UpdatedBy = order.UpdatedBy
	staged.UpdatedAt = order.UpdatedAt
	return nil
}

func (o memOrders) GetForUpdate(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if staged, ok := o.t.orders[id]; ok {
		return cloneOrder(staged), nil
	}

	lock := o.t.s.lockFor(id)
	lock.Lock()
	o.t.held[id] = lock

	o.t.s.mu.Lock()
	committed, ok := o.t.s.orders[id]
	var c *models.Order
	if ok {
		c = cloneOrder(committed)
	}
	o.t.s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	o.t.orders[id] = c
	return cloneOrder(c), nil
}

type memProductStore struct{ t *memTx }

func (p memProductStore) Insert(_ context.Context, prod *models.Product) error {
	p.t.inserted[prod.ID] = prod.Clone()
	return nil
}

func (p memProductStore) UpdateDetails(_ context.Context, prod *models.Product) error {
	w, ok := p.t.working[prod.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrRowNotLocked, prod.ID)
	}
	stock := w.StockQuantity
	*w = *prod.Clone()
	w.StockQuantity = stock
	return nil
}

func (p memProductStore) Delete(_ context.Context, id uuid.UUID) error {
	p.t.s.mu.Lock()
	defer p.t.s.mu.Unlock()
	if _, ok := p.t.s.products[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	for _, o := range p.t.s.orders {
		for _, it := range o.Items {
			if it.ProductID == id {
				return fmt.Errorf("%w: %s", domain.ErrProductInUse, id)
			}
		}
	}
	p.t.deleted[id] = true
	return nil
}

type memOutbox struct{ t *memTx }

func (o memOutbox) Append(_ context.Context, topic string, _ uuid.UUID, payload any) error {
	if err := o.t.s.failure("outbox"); err != nil {
		return err
	}
	o.t.topics = append(o.t.topics, topic)
	o.t.payloads = append(o.t.payloads, payload)
	return nil
}

// memCache records invalidations and serves a fixed set of entries.
type memCache struct {
	mu      sync.Mutex
	deleted []uuid.UUID
}

func (c *memCache) Delete(_ context.Context, ids ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *memCache) invalidated() []uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uuid.UUID(nil), c.deleted...)
}
