// Package registry caches one service handle per connection string.
package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/connstr"
)

// Registry maps connection strings to service handles. Handles are created on
// first use and never evicted. At most one handle is ever stored per key.
type Registry struct {
	mu      sync.RWMutex
	handles map[string]azapi.ServiceAPI
	factory azapi.Factory
	logger  *slog.Logger

	created atomic.Int64
	reused  atomic.Int64
	failed  atomic.Int64

	// OnCreate, if set, is called after a new handle is stored
	OnCreate func(account *connstr.Account)
}

// Stats tracks registry usage.
type Stats struct {
	Created int64
	Reused  int64
	Failed  int64
}

// New creates a registry that builds handles with factory.
func New(factory azapi.Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		handles: make(map[string]azapi.ServiceAPI),
		factory: factory,
		logger:  logger,
	}
}

// Get returns the handle for connectionString, creating it on first use.
// Malformed strings fail with ErrInvalidConfiguration and are not cached.
func (r *Registry) Get(connectionString string) (azapi.ServiceAPI, error) {
	r.mu.RLock()
	handle, ok := r.handles[connectionString]
	r.mu.RUnlock()
	if ok {
		r.reused.Add(1)
		return handle, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if handle, ok := r.handles[connectionString]; ok {
		r.reused.Add(1)
		return handle, nil
	}

	account, err := connstr.Parse(connectionString)
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("invalid connection string", "error", err)
		return nil, err
	}

	handle, err = r.factory(account)
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("failed to create service client", "account", account.Name, "error", err)
		return nil, err
	}

	r.handles[connectionString] = handle
	r.created.Add(1)
	r.logger.Debug("created service client", "account", account.Name, "endpoint", account.ServiceURL())
	if r.OnCreate != nil {
		r.OnCreate(account)
	}

	return handle, nil
}

// Len returns the number of cached handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// Stats returns a snapshot of registry statistics.
func (r *Registry) Stats() Stats {
	return Stats{
		Created: r.created.Load(),
		Reused:  r.reused.Load(),
		Failed:  r.failed.Load(),
	}
}
