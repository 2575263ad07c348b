// Package cart holds the per-session shopping cart: an insertion-ordered set
// of lines, unique by product id, with every quantity kept >= 1. All cart
// entry points (add button, stepper, direct quantity field, line removal)
// converge on the same four primitives so no caller can derive its own
// quantity logic.
package cart

import (
	"errors"
	"sync"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// Snapshot is what the ledger copies out of the catalog when a line is first
// created. Name and price are frozen at that moment: a later catalog reload
// or price change never rewrites lines already in the cart.
type Snapshot struct {
	Name       string
	PriceCents int64
}

// CatalogLookup resolves a product id to its current catalog snapshot.
type CatalogLookup interface {
	Lookup(id string) (Snapshot, bool)
}

// Line is one cart entry.
type Line struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Quantity   int    `json:"quantity"`
}

// Ledger owns all lines exclusively. A product id is either absent or present
// with quantity >= 1; any operation that would drop a quantity to zero
// removes the line instead of retaining it.
type Ledger struct {
	mu      sync.Mutex
	catalog CatalogLookup
	lines   []Line
	pos     map[string]int
}

func NewLedger(catalog CatalogLookup) *Ledger {
	return &Ledger{
		catalog: catalog,
		pos:     map[string]int{},
	}
}

// Increment adds one unit, creating the line from the catalog snapshot on
// first add. Unknown product ids leave the ledger untouched.
func (l *Ledger) Increment(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.pos[id]; ok {
		l.lines[i].Quantity++
		return nil
	}
	return l.insert(id, 1)
}

// Decrement removes one unit; the line disappears when its quantity would
// drop below one. Decrementing an absent product is a no-op, not an error.
func (l *Ledger) Decrement(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.pos[id]
	if !ok {
		return
	}
	if l.lines[i].Quantity > 1 {
		l.lines[i].Quantity--
		return
	}
	l.removeAt(i)
}

// SetQuantity overwrites the quantity outright. Zero removes the line;
// negative values are rejected with ErrInvalidQuantity and the ledger is left
// unchanged.
func (l *Ledger) SetQuantity(id string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if quantity < 0 {
		return ErrInvalidQuantity
	}

	i, ok := l.pos[id]
	if quantity == 0 {
		if ok {
			l.removeAt(i)
		}
		return nil
	}
	if ok {
		l.lines[i].Quantity = quantity
		return nil
	}
	return l.insert(id, quantity)
}

// Remove drops the line unconditionally. Absent ids are a no-op.
func (l *Ledger) Remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.pos[id]; ok {
		l.removeAt(i)
	}
}

// Clear empties the ledger, as after a checkout hand-off.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lines = nil
	l.pos = map[string]int{}
}

// Lines returns the current lines in insertion order.
func (l *Ledger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Line, len(l.lines))
	copy(out, l.lines)
	return out
}

// TotalCents recomputes the total from the current lines on every call; it is
// never cached where it could desync.
func (l *Ledger) TotalCents() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	var total int64
	for _, ln := range l.lines {
		total += ln.PriceCents * int64(ln.Quantity)
	}
	return total
}

// Quantity reports the current quantity for a product, zero when absent.
func (l *Ledger) Quantity(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if i, ok := l.pos[id]; ok {
		return l.lines[i].Quantity
	}
	return 0
}

func (l *Ledger) insert(id string, quantity int) error {
	snap, ok := l.catalog.Lookup(id)
	if !ok {
		return ErrProductNotFound
	}

	l.pos[id] = len(l.lines)
	l.lines = append(l.lines, Line{
		ProductID:  id,
		Name:       snap.Name,
		PriceCents: snap.PriceCents,
		Quantity:   quantity,
	})
	return nil
}

func (l *Ledger) removeAt(i int) {
	delete(l.pos, l.lines[i].ProductID)
	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	for j := i; j < len(l.lines); j++ {
		l.pos[l.lines[j].ProductID] = j
	}
}
