package promotion

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Applied holds the single promotion applied to the current checkout.
// Promotions do not stack: a successful Apply replaces the previous one and a
// rejected code leaves it untouched.
type Applied struct {
	mu       sync.RWMutex
	resolver *Resolver
	current  *Descriptor
}

// NewApplied creates an empty holder backed by resolver.
func NewApplied(resolver *Resolver) *Applied {
	return &Applied{resolver: resolver}
}

// Apply resolves code against subtotal and, on success, makes it the applied promotion.
func (a *Applied) Apply(code string, subtotal decimal.Decimal) Resolution {
	res := a.resolver.Resolve(code, subtotal)
	if !res.OK() {
		return res
	}

	a.mu.Lock()
	d := *res.Promotion
	a.current = &d
	a.mu.Unlock()

	return res
}

// Current returns a copy of the applied promotion, if any.
func (a *Applied) Current() (Descriptor, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.current == nil {
		return Descriptor{}, false
	}
	return *a.current, true
}

// Discount returns the applied promotion's discount against subtotal, or zero.
func (a *Applied) Discount(subtotal decimal.Decimal) decimal.Decimal {
	d, ok := a.Current()
	if !ok {
		return decimal.Zero
	}
	return d.Discount(subtotal)
}

// Clear removes the applied promotion.
func (a *Applied) Clear() {
	a.mu.Lock()
	a.current = nil
	a.mu.Unlock()
}
