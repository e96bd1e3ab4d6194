package cache

import (
	"context"
	"sync"
	"time"

	"github.com/bignstrong/RailGuard/internal/domain/cart"
)

const maxCartSweepInterval = 5 * time.Minute

type cartEntry struct {
	cart      *cart.Cart
	expiresAt time.Time
}

// InMemoryCartStore is the single-instance cart store used when Redis is disabled.
// A background loop drops expired carts until Close.
type InMemoryCartStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cartEntry
	now     func() time.Time

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCartStore creates a cart store whose entries expire after ttl.
// Expired carts are swept every ttl, at most every five minutes.
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	interval := ttl
	if interval <= 0 || interval > maxCartSweepInterval {
		interval = maxCartSweepInterval
	}
	s := &InMemoryCartStore{
		ttl:     ttl,
		entries: make(map[string]cartEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.sweepLoop(interval)
	return s
}

// Get returns a copy of the stored cart
func (s *InMemoryCartStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	s.mu.RLock()
	e, ok := s.entries[sessionID]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expiresAt) {
		return nil, cart.ErrCartNotFound
	}
	return cloneCart(e.cart), nil
}

// Save stores a copy of c so later mutations by the caller are not visible
func (s *InMemoryCartStore) Save(ctx context.Context, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[c.SessionID] = cartEntry{cart: cloneCart(c), expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Update applies fn under the store lock
func (s *InMemoryCartStore) Update(ctx context.Context, sessionID string, fn func(*cart.Cart)) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := cart.New(sessionID)
	if e, ok := s.entries[sessionID]; ok && !now.After(e.expiresAt) {
		c = cloneCart(e.cart)
	}
	fn(c)
	s.entries[sessionID] = cartEntry{cart: cloneCart(c), expiresAt: now.Add(s.ttl)}
	return c, nil
}

// Take deletes the cart and returns it; expired carts count as missing
func (s *InMemoryCartStore) Take(ctx context.Context, sessionID string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[sessionID]
	delete(s.entries, sessionID)
	if !ok || s.now().After(e.expiresAt) {
		return nil, cart.ErrCartNotFound
	}
	return e.cart, nil
}

// Delete removes the cart for sessionID
func (s *InMemoryCartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

// Close stops the sweeper. Safe to call more than once.
func (s *InMemoryCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryCartStore) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *InMemoryCartStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

func (s *InMemoryCartStore) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func cloneCart(c *cart.Cart) *cart.Cart {
	return &cart.Cart{SessionID: c.SessionID, Items: c.Snapshot(), UpdatedAt: c.UpdatedAt}
}

var _ cart.Repository = (*InMemoryCartStore)(nil)
