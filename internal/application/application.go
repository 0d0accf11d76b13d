package application

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/api"
	"github.com/eugenenazirov/box-packer/internal/config"
	"github.com/eugenenazirov/box-packer/internal/packing"
	"github.com/eugenenazirov/box-packer/internal/solver"
	"github.com/eugenenazirov/box-packer/internal/storage"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage storage.Storage
	packer  packing.Packer
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store := storage.NewMemoryStorage(
		storage.WithMaxItems(cfg.MaxItemsPerSession),
		storage.WithMaxSessions(cfg.MaxSessions),
	)

	packer := NewPacker(cfg, logger)
	handler := api.NewHandler(packer, store,
		api.WithHandlerLogger(logger),
		api.WithLimits(api.Limits{
			DefaultStrategy:    cfg.DefaultStrategy,
			DefaultMaxAttempts: cfg.DefaultMaxAttempts,
			MaxAttemptsLimit:   cfg.MaxAttemptsLimit,
			ContainerMaxWeight: cfg.ContainerMaxWeight,
			MaxItems:           cfg.MaxItemsPerSession,
		}),
	)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &App{
		storage: store,
		packer:  packer,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, BuildRootHandler(apiRouter)),
	}, nil
}

// NewPacker builds the strategy packer over the pivot solver, wrapped in a
// result cache unless the configured capacity is zero.
func NewPacker(cfg config.Config, logger *zap.Logger) packing.Packer {
	packer := packing.New(solver.NewPivotSolver(), logger)
	if cfg.CacheCapacity <= 0 {
		return packer
	}
	return packing.NewCached(packer, cfg.CacheCapacity, cfg.CacheTTL, logger)
}

// BuildRootHandler mounts the API and metrics routes and answers the root
// path with a short index of the available endpoints.
func BuildRootHandler(apiHandler http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)
	mux.Handle("/metrics", apiHandler)
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(indexDocument))
	}))
	return mux
}

const indexDocument = `{"service":"box-packer","endpoints":["/api/health","/api/strategies","/api/presets","/api/sessions","/api/pack","/api/pack/export","/metrics"]}
`

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}
