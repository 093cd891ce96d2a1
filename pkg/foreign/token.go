// Package foreign moves ownership of driver-private state across the
// untyped subsystem boundary.
//
// A value is transferred in with NewToken and travels through the
// subsystem as an opaque Token. While the token is live the value can be
// borrowed any number of times, concurrently, without affecting
// ownership. Take reverses the transfer exactly once; afterwards the
// token is dead and both Borrow and Take report false.
package foreign

import "sync"

// Token is the opaque representation of a transferred value. The zero
// Token is never issued and is always invalid.
type Token uintptr

var registry = struct {
	mu     sync.RWMutex
	values map[Token]any
	nextID Token
}{
	values: make(map[Token]any),
	nextID: 1,
}

// NewToken transfers v into the registry and returns its token. The
// registry holds the only reference the dispatch path will ever see;
// the caller keeps its own reference but must treat the value as shared
// until the token is taken back.
func NewToken(v any) Token {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	tok := registry.nextID
	registry.nextID++
	registry.values[tok] = v
	return tok
}

// Borrow returns a shared view of the transferred value. It never
// consumes the token and is safe to call concurrently with other
// borrows. The second result is false if the token is dead or was never
// issued.
func (t Token) Borrow() (any, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	v, ok := registry.values[t]
	return v, ok
}

// Take reverses the transfer, returning the owned value and
// invalidating the token. Only the first Take succeeds.
func (t Token) Take() (any, bool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	v, ok := registry.values[t]
	if ok {
		delete(registry.values, t)
	}
	return v, ok
}

// Valid reports whether the token currently maps to a value.
func (t Token) Valid() bool {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	_, ok := registry.values[t]
	return ok
}

// Count returns the number of live tokens. Tests use it to assert that
// failed or torn-down registrations leak nothing.
func Count() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	return len(registry.values)
}
