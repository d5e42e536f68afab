package di

import (
	"log/slog"
	"net/http"

	"github.com/goliatone/go-opsboard/actions"
	"github.com/goliatone/go-opsboard/cache"
	"github.com/goliatone/go-opsboard/data"
	"github.com/goliatone/go-opsboard/gateway"
	"github.com/goliatone/go-opsboard/hooks"
	"github.com/goliatone/go-opsboard/internal/config"
)

// Option customises how the container builds its components.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	httpClient   *http.Client
	keyStore     gateway.KeyStore
	sources      []actions.Source
	sourcesSet   bool
	cacheOptions []cache.Option
	dashboard    *hooks.DashboardParams
}

// WithLogger sets the logger every component derives its own from.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHTTPClient replaces the http.Client used by the gateway.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithKeyStore replaces the file-backed key store used in client mode.
func WithKeyStore(store gateway.KeyStore) Option {
	return func(o *options) {
		o.keyStore = store
	}
}

// WithSources replaces the sync sources built from configuration.
func WithSources(sources ...actions.Source) Option {
	return func(o *options) {
		o.sources = sources
		o.sourcesSet = true
	}
}

// WithCacheOptions passes extra options to cache.New.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *options) {
		o.cacheOptions = append(o.cacheOptions, opts...)
	}
}

// WithDashboardParams overrides the dashboard read sizes.
func WithDashboardParams(p hooks.DashboardParams) Option {
	return func(o *options) {
		o.dashboard = &p
	}
}

// Container wires one session: gateway, cache, fetcher, actions and hooks.
// Every component is built once and shared, so all reads and writes go
// through the same cache.
type Container struct {
	config   config.Config
	logger   *slog.Logger
	keyStore gateway.KeyStore
	gateway  *gateway.Client
	cache    *cache.Client
	fetcher  *data.Fetcher
	actions  *actions.Service
	hooks    *hooks.Hooks
}

// NewContainer validates cfg and builds every component from it.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	keyStore := o.keyStore
	if keyStore == nil {
		keyStore = gateway.NewFileKeyStore(cfg.KeyFile)
	}

	gwOpts := []gateway.Option{
		gateway.WithLogger(o.logger),
		gateway.WithCredentials(gateway.Credentials{
			Mode:      cfg.GatewayMode(),
			ServerKey: cfg.APIKey,
			Store:     keyStore,
		}),
	}
	if cfg.Timeout > 0 {
		gwOpts = append(gwOpts, gateway.WithTimeout(cfg.Timeout))
	}
	if o.httpClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(o.httpClient))
	}
	api := gateway.New(cfg.WorkersURL, gwOpts...)

	cacheClient, err := cache.New(cfg.CacheConfig(), append([]cache.Option{cache.WithLogger(o.logger)}, o.cacheOptions...)...)
	if err != nil {
		return nil, err
	}

	sources := o.sources
	if !o.sourcesSet {
		sources = []actions.Source{
			actions.HospitableSource{APIKey: cfg.Sources.HospitableAPIKey, API: api, Logger: o.logger},
			actions.TurnoSource{APIToken: cfg.Sources.TurnoAPIToken, API: api, Logger: o.logger},
		}
	}

	fetcher := data.New(api, data.WithLogger(o.logger))
	svc := actions.New(api,
		actions.WithLogger(o.logger),
		actions.WithSources(sources...),
		actions.WithRevalidator(actions.NewCacheRevalidator(cacheClient, o.logger)),
	)

	hookOpts := []hooks.Option{hooks.WithLogger(o.logger)}
	if o.dashboard != nil {
		hookOpts = append(hookOpts, hooks.WithDashboardParams(*o.dashboard))
	}

	return &Container{
		config:   cfg,
		logger:   o.logger,
		keyStore: keyStore,
		gateway:  api,
		cache:    cacheClient,
		fetcher:  fetcher,
		actions:  svc,
		hooks:    hooks.New(cacheClient, fetcher, svc, hookOpts...),
	}, nil
}

// NewContainerWithDefaults builds a container from config.Default.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(config.Default(), opts...)
}

// Config returns the configuration the container was built with.
func (c *Container) Config() config.Config {
	return c.config
}

func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// KeyStore returns the store the gateway reads the client-mode key from.
func (c *Container) KeyStore() gateway.KeyStore {
	return c.keyStore
}

func (c *Container) Gateway() *gateway.Client {
	return c.gateway
}

// Cache returns the session's cache client.
func (c *Container) Cache() *cache.Client {
	return c.cache
}

func (c *Container) Fetcher() *data.Fetcher {
	return c.fetcher
}

func (c *Container) Actions() *actions.Service {
	return c.actions
}

// Hooks returns the read and write surface.
func (c *Container) Hooks() *hooks.Hooks {
	return c.hooks
}

// Close shuts the cache down. In-flight fetches are discarded.
func (c *Container) Close() error {
	return c.cache.Close()
}
