package blobstore

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/blobtypes"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/config"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/errors"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/azapi"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/connstr"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/operations/list"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/operations/move"
	"github.com/input-output-hk/catalyst-forge-libs/azure/blobstore/internal/registry"
)

const (
	// DefaultBlockSize is the block size for streamed uploads.
	DefaultBlockSize = 4 * 1024 * 1024

	// DefaultMaxRetries is the SDK retry budget.
	DefaultMaxRetries = 3
)

// Client performs blob operations against a default connection. Clients
// derived with Account or WithConnection share the parent's handle cache.
// A Client is safe for concurrent use.
type Client struct {
	config     blobtypes.ClientConfig
	connection string

	registry *registry.Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
	fs       billy.Filesystem
}

// ConfigFactory produces configuration when the client is built, for example
// from a secret store.
type ConfigFactory func(ctx context.Context) (*config.Config, error)

// New creates a client with the provided options.
//
// Example:
//
//	client, err := blobstore.New(
//	    blobstore.WithConnectionString(cs),
//	    blobstore.WithAccount("imageService", imagesCS),
//	    blobstore.WithPageSize(500),
//	)
func New(opts ...blobtypes.Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	factory := azapi.NewFactory(azapi.FactoryConfig{
		MaxRetries:           cfg.MaxRetries,
		RetryDelay:           cfg.RetryDelay,
		Credential:           cfg.TokenCredential,
		UseDefaultCredential: cfg.UseDefaultCredential,
	})
	return newClient(cfg, factory)
}

// NewFromConfig creates a client from loaded configuration. Options are
// applied after the configuration and may override it.
func NewFromConfig(cfg *config.Config, opts ...blobtypes.Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.NewError("newFromConfig", errors.ErrInvalidConfiguration).
			WithMessage("configuration is required")
	}
	return New(append(cfg.Options(), opts...)...)
}

// NewWithFactory resolves configuration through factory and creates a client
// from it.
func NewWithFactory(ctx context.Context, factory ConfigFactory, opts ...blobtypes.Option) (*Client, error) {
	if factory == nil {
		return nil, errors.NewError("newWithFactory", errors.ErrInvalidConfiguration).
			WithMessage("configuration factory is required")
	}
	cfg, err := factory(ctx)
	if err != nil {
		return nil, errors.NewError("newWithFactory", err)
	}
	return NewFromConfig(cfg, opts...)
}

func defaultConfig() blobtypes.ClientConfig {
	return blobtypes.ClientConfig{
		PageSize:         list.DefaultPageSize,
		Concurrency:      list.DefaultConcurrency,
		BlockSize:        DefaultBlockSize,
		MaxRetries:       DefaultMaxRetries,
		CopyPollInterval: move.DefaultPollInterval,
		SASExpiry:        move.DefaultSASExpiry,
	}
}

func newClient(cfg blobtypes.ClientConfig, factory azapi.Factory) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.DefaultConnectionString == "" {
		return nil, errors.NewError("new", errors.ErrInvalidConfiguration).
			WithMessage("a default connection string is required")
	}
	if _, err := connstr.Parse(cfg.DefaultConnectionString); err != nil {
		logger.Error("invalid default connection string", "error", err)
		return nil, errors.NewError("new", err)
	}

	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = osfs.New("")
	}

	m := metrics.New(cfg.MetricsRegisterer)
	reg := registry.New(factory, logger)
	reg.OnCreate = func(*connstr.Account) { m.HandleCreated() }

	cfg.Accounts = maps.Clone(cfg.Accounts)

	return &Client{
		config:     cfg,
		connection: cfg.DefaultConnectionString,
		registry:   reg,
		metrics:    m,
		logger:     logger,
		fs:         filesystem,
	}, nil
}

// WithConnection returns a client bound to another connection string. The
// handle cache is shared with c.
func (c *Client) WithConnection(connectionString string) (*Client, error) {
	if _, err := connstr.Parse(connectionString); err != nil {
		return nil, errors.NewError("withConnection", err)
	}
	derived := *c
	derived.connection = connectionString
	return &derived, nil
}

// Account returns a client bound to a named account.
func (c *Client) Account(name string) (*Client, error) {
	cs, err := c.AccountConnectionString(name)
	if err != nil {
		return nil, err
	}
	return c.WithConnection(cs)
}

// AccountConnectionString returns the connection string of a named account.
func (c *Client) AccountConnectionString(name string) (string, error) {
	cs, ok := c.config.Accounts[name]
	if !ok {
		return "", errors.NewError("account", errors.ErrInvalidConfiguration).
			WithMessage("account " + name + " is not configured")
	}
	return cs, nil
}

// Accounts returns the names of the configured accounts in sorted order.
func (c *Client) Accounts() []string {
	return slices.Sorted(maps.Keys(c.config.Accounts))
}

// ConnectionString returns the connection string the client is bound to.
func (c *Client) ConnectionString() string {
	return c.connection
}

// Connections returns the number of cached connection handles.
func (c *Client) Connections() int {
	return c.registry.Len()
}

// service resolves the handle for the client's connection.
func (c *Client) service() (azapi.ServiceAPI, error) {
	return c.registry.Get(c.connection)
}

func (c *Client) mover(opts ...blobtypes.MoveOption) *move.Mover {
	moveCfg := &blobtypes.MoveOptionConfig{PollInterval: c.config.CopyPollInterval}
	for _, opt := range opts {
		opt(moveCfg)
	}
	return move.New(c.registry, c.logger, move.Config{
		DefaultConnectionString: c.connection,
		PollInterval:            moveCfg.PollInterval,
		SASExpiry:               c.config.SASExpiry,
	})
}
