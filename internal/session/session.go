// Package session ties one catalog view and one cart together per visitor.
// Sessions are addressed by signed tokens; there are no user accounts.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
)

// Session is the unit of state the storefront keeps per visitor: a filterable
// view over the shared catalog plus the visitor's cart.
type Session struct {
	ID        string
	Catalog   *catalog.Index
	Cart      *cart.Ledger
	CreatedAt time.Time

	lastSeen time.Time
}

// catalogLookup adapts the session's index to the ledger's resolution hook.
type catalogLookup struct {
	idx *catalog.Index
}

func (l catalogLookup) Lookup(id string) (cart.Snapshot, bool) {
	p, ok := l.idx.Get(id)
	if !ok {
		return cart.Snapshot{}, false
	}
	return cart.Snapshot{Name: p.Name, PriceCents: p.PriceCents}, true
}

// Manager creates and resolves live sessions. New sessions are seeded from
// the shared catalog snapshot; sessions idle past the TTL are evicted lazily
// on access.
type Manager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session

	products []catalog.Product
	loaded   bool
}

func NewManager(ttl time.Duration) *Manager {
	return &Manager{
		ttl:      ttl,
		sessions: map[string]*Session{},
	}
}

// SetCatalog stores the loaded product snapshot used to seed new sessions.
// Existing sessions keep the catalog they were created with; a reload does
// not reconcile carts already in flight.
func (m *Manager) SetCatalog(products []catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.products = make([]catalog.Product, len(products))
	copy(m.products, products)
	m.loaded = true
}

func (m *Manager) CatalogLoaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// New creates a session. When the catalog never loaded the session's index
// stays unloaded and browse endpoints serve the load-failure state.
func (m *Manager) New() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.pruneLocked(now)

	idx := catalog.NewIndex()
	if m.loaded {
		idx.Load(m.products)
	}

	s := &Session{
		ID:        "s_" + uuid.NewString(),
		Catalog:   idx,
		Cart:      cart.NewLedger(catalogLookup{idx: idx}),
		CreatedAt: now,
		lastSeen:  now,
	}
	m.sessions[s.ID] = s
	return s
}

// Get resolves a session by id, refreshing its idle deadline. Expired
// sessions are gone for good; the caller starts a fresh one.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.pruneLocked(now)

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) pruneLocked(now time.Time) {
	if m.ttl <= 0 {
		return
	}
	cutoff := now.Add(-m.ttl)
	for id, s := range m.sessions {
		if s.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
