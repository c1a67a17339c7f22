package calendar

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"tradecal/internal/exchange"
)

// ErrUnknownExchange is returned by Registry lookups for unregistered names.
var ErrUnknownExchange = errors.New("unknown exchange")

// Registry holds one Querier per exchange for serving. It is safe for
// concurrent use.
type Registry struct {
	mu       sync.RWMutex
	queriers map[string]Querier
	opts     []Option
	wrap     []func(Querier) Querier
}

// NewRegistry creates an empty Registry. opts are applied to every
// Evaluator it builds, and wrap decorates each one in order.
func NewRegistry(opts []Option, wrap ...func(Querier) Querier) *Registry {
	return &Registry{
		queriers: make(map[string]Querier),
		opts:     opts,
		wrap:     wrap,
	}
}

// Add builds a Querier for s, replacing any previous one with the same name.
func (r *Registry) Add(s *exchange.Schedule) error {
	ev, err := NewEvaluator(s, r.opts...)
	if err != nil {
		return fmt.Errorf("registering %s: %w", s.Name(), err)
	}
	var q Querier = ev
	for _, w := range r.wrap {
		q = w(q)
	}

	r.mu.Lock()
	r.queriers[s.Name()] = q
	r.mu.Unlock()
	return nil
}

// AddAll registers every schedule in m.
func (r *Registry) AddAll(m map[string]*exchange.Schedule) error {
	for _, s := range m {
		if err := r.Add(s); err != nil {
			return err
		}
	}
	return nil
}

// Remove drops name from the registry.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.queriers, name)
	r.mu.Unlock()
}

// Get returns the Querier registered under name.
func (r *Registry) Get(name string) (Querier, error) {
	r.mu.RLock()
	q, ok := r.queriers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExchange, name)
	}
	return q, nil
}

// Names returns the registered exchange names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.queriers))
	for name := range r.queriers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of registered exchanges.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.queriers)
}
