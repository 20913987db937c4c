// Package memory provides in-memory repository implementations backed by a
// single mutex-guarded Store. It serves the test suite and the databaseless
// dev mode; the Postgres implementations are the production backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/shoply/storefront/internal/domain/auth"
	"github.com/shoply/storefront/internal/domain/cart"
	"github.com/shoply/storefront/internal/domain/catalog"
	"github.com/shoply/storefront/internal/domain/checkout"
	"github.com/shoply/storefront/internal/domain/coupon"
)

// Store holds all in-memory state. Zero value is not usable; call NewStore.
type Store struct {
	mu sync.RWMutex

	items       map[string]catalog.Item // by item ID
	itemSlugs   map[string]string       // slug -> item ID
	coupons     map[string]coupon.Coupon
	couponCodes map[string]string // code -> coupon ID
	lines       map[string]*cart.Line
	orders      map[string]*orderRec
	billing     map[string]checkout.BillingAddress
	sessions    map[string]auth.Session // by token hash
	users       map[string]auth.User
}

// orderRec stores an order without hydrated lines; line IDs model the
// order<->line attachment.
type orderRec struct {
	order   cart.Order
	lineIDs []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		items:       make(map[string]catalog.Item),
		itemSlugs:   make(map[string]string),
		coupons:     make(map[string]coupon.Coupon),
		couponCodes: make(map[string]string),
		lines:       make(map[string]*cart.Line),
		orders:      make(map[string]*orderRec),
		billing:     make(map[string]checkout.BillingAddress),
		sessions:    make(map[string]auth.Session),
		users:       make(map[string]auth.User),
	}
}

// --- Seed helpers ---

// SeedItem inserts a catalog item.
func (s *Store) SeedItem(it catalog.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = it
	s.itemSlugs[it.Slug] = it.ID
}

// SeedCoupon inserts a coupon.
func (s *Store) SeedCoupon(c coupon.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.ID] = c
	s.couponCodes[c.Code] = c.ID
}

// SeedUser inserts a user.
func (s *Store) SeedUser(u auth.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// SeedSession inserts a session, keyed by its token hash.
func (s *Store) SeedSession(sess auth.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.TokenHash] = sess
}

// BillingAddress returns a stored billing address snapshot by ID.
func (s *Store) BillingAddress(id string) (checkout.BillingAddress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.billing[id]
	return b, ok
}

// --- Repository accessors ---

// Items returns the catalog repository view of the store.
func (s *Store) Items() catalog.Repository { return (*itemRepo)(s) }

// Coupons returns the coupon repository view of the store.
func (s *Store) Coupons() coupon.Repository { return (*couponRepo)(s) }

// Orders returns the order repository view of the store.
func (s *Store) Orders() cart.OrderRepository { return (*orderRepo)(s) }

// Lines returns the line repository view of the store.
func (s *Store) Lines() cart.LineRepository { return (*lineRepo)(s) }

// Billing returns the billing address repository view of the store.
func (s *Store) Billing() checkout.BillingRepository { return (*billingRepo)(s) }

// Sessions returns the session repository view of the store.
func (s *Store) Sessions() auth.Repository { return (*sessionRepo)(s) }

// --- catalog.Repository ---

type itemRepo Store

func (r *itemRepo) List(_ context.Context) ([]catalog.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]catalog.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (r *itemRepo) GetBySlug(_ context.Context, slug string) (*catalog.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.itemSlugs[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	it := r.items[id]
	return &it, nil
}

// --- coupon.Repository ---

type couponRepo Store

func (r *couponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.couponCodes[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	c := r.coupons[id]
	return &c, nil
}

// --- cart.OrderRepository ---

type orderRepo Store

func (r *orderRepo) ActiveForUser(_ context.Context, userID string) (*cart.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec := r.activeRec(userID)
	if rec == nil {
		return nil, cart.ErrNoActiveOrder
	}
	return r.hydrate(rec), nil
}

func (r *orderRepo) Create(_ context.Context, o *cart.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Mirrors the partial unique index in the Postgres schema.
	if !o.Ordered && r.activeRec(o.UserID) != nil {
		return errors.Errorf("user %s already has an active order", o.UserID)
	}
	r.orders[o.ID] = &orderRec{order: *o}
	return nil
}

func (r *orderRepo) AttachLine(_ context.Context, orderID, lineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orders[orderID]
	if !ok {
		return errors.Errorf("order %s not found", orderID)
	}
	for _, id := range rec.lineIDs {
		if id == lineID {
			return nil
		}
	}
	rec.lineIDs = append(rec.lineIDs, lineID)
	return nil
}

func (r *orderRepo) DetachLine(_ context.Context, orderID, lineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orders[orderID]
	if !ok {
		return errors.Errorf("order %s not found", orderID)
	}
	kept := rec.lineIDs[:0]
	for _, id := range rec.lineIDs {
		if id != lineID {
			kept = append(kept, id)
		}
	}
	rec.lineIDs = kept
	return nil
}

func (r *orderRepo) SetCoupon(_ context.Context, orderID, couponID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orders[orderID]
	if !ok {
		return errors.Errorf("order %s not found", orderID)
	}
	rec.order.CouponID = &couponID
	return nil
}

func (r *orderRepo) SetBillingAddress(_ context.Context, orderID, billingAddressID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.orders[orderID]
	if !ok {
		return errors.Errorf("order %s not found", orderID)
	}
	rec.order.BillingAddressID = &billingAddressID
	return nil
}

// activeRec returns the user's unordered order record, or nil.
// Caller must hold at least a read lock.
func (r *orderRepo) activeRec(userID string) *orderRec {
	for _, rec := range r.orders {
		if rec.order.UserID == userID && !rec.order.Ordered {
			return rec
		}
	}
	return nil
}

// hydrate copies the record and fills in its lines.
// Caller must hold at least a read lock.
func (r *orderRepo) hydrate(rec *orderRec) *cart.Order {
	o := rec.order
	o.Lines = make([]cart.Line, 0, len(rec.lineIDs))
	for _, id := range rec.lineIDs {
		if l, ok := r.lines[id]; ok {
			o.Lines = append(o.Lines, *l)
		}
	}
	return &o
}

// --- cart.LineRepository ---

type lineRepo Store

func (r *lineRepo) GetOrCreate(_ context.Context, userID, itemID string) (*cart.Line, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range r.lines {
		if l.UserID == userID && l.Item.ID == itemID && !l.Ordered {
			cp := *l
			return &cp, false, nil
		}
	}

	it, ok := r.items[itemID]
	if !ok {
		return nil, false, errors.Errorf("item %s not found", itemID)
	}
	l := &cart.Line{
		ID:       uuid.New().String(),
		UserID:   userID,
		Item:     it,
		Quantity: 1,
	}
	r.lines[l.ID] = l
	cp := *l
	return &cp, true, nil
}

func (r *lineRepo) SetQuantity(_ context.Context, lineID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lines[lineID]
	if !ok {
		return errors.Errorf("line %s not found", lineID)
	}
	l.Quantity = quantity
	return nil
}

// --- checkout.BillingRepository ---

type billingRepo Store

func (r *billingRepo) Create(_ context.Context, a *checkout.BillingAddress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.billing[a.ID] = *a
	return nil
}

// --- auth.Repository ---

type sessionRepo Store

func (r *sessionRepo) FindSessionByTokenHash(_ context.Context, hash string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.sessions[hash]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return &sess, nil
}
