package storefront

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"storefront/internal/model"
)

const maxProfileLen = 128

// Registry defaults.
const (
	DefaultMaxProfiles = 10000
	DefaultProfileIdle = time.Hour
)

// Registry hands out one App per profile id, creating it on first use.
// At most maxApps profiles are kept; the least recently used goes first,
// and a profile unused for longer than the idle time is dropped. Dropping
// an App loses only in-process state such as an unplaced checkout.
type Registry struct {
	deps Deps

	mu   sync.Mutex
	apps *expirable.LRU[string, *App]
}

// RegistryOptions bound the number and lifetime of live apps. Zero values
// select the defaults.
type RegistryOptions struct {
	MaxProfiles int
	IdleTimeout time.Duration
}

// NewRegistry creates an empty registry.
func NewRegistry(deps Deps, opts RegistryOptions) *Registry {
	if opts.MaxProfiles <= 0 {
		opts.MaxProfiles = DefaultMaxProfiles
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultProfileIdle
	}
	return &Registry{
		deps: deps,
		apps: expirable.NewLRU[string, *App](opts.MaxProfiles, nil, opts.IdleTimeout),
	}
}

// Get returns the App for profile and marks it as used.
func (r *Registry) Get(profile string) (*App, error) {
	if profile == "" || len(profile) > maxProfileLen {
		return nil, model.NewValidationError("profile", "must be 1-128 characters")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps.Get(profile)
	if !ok {
		a = NewApp(profile, r.deps)
	}
	// Re-adding restarts the idle clock.
	r.apps.Add(profile, a)
	return a, nil
}

// Evict drops the in-process state for profile. Persisted identity, session
// and guest cart remain in the store.
func (r *Registry) Evict(profile string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps.Remove(profile)
}

// Len returns the number of live apps.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apps.Len()
}
