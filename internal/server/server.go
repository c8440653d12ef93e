package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	apihttp "github.com/tabmirror/backend/internal/api/http"
	"github.com/tabmirror/backend/internal/api/middleware"
	"github.com/tabmirror/backend/internal/domain/approval"
	"github.com/tabmirror/backend/internal/domain/install"
	"github.com/tabmirror/backend/internal/domain/prefs"
	"github.com/tabmirror/backend/internal/domain/registry"
	"github.com/tabmirror/backend/internal/domain/session"
	"github.com/tabmirror/backend/internal/infrastructure/config"
	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"github.com/tabmirror/backend/internal/infrastructure/monitoring"
	syncclient "github.com/tabmirror/backend/internal/sync"
	"github.com/tabmirror/backend/internal/ws"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	helper     *session.Helper
	log        *logging.Logger
}

// New wires the service together from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	source, err := buildSource(cfg, log)
	if err != nil {
		return nil, err
	}

	collapsed := prefs.NewBoolSetStore(
		filepath.Join(cfg.Storage.Path, "prefs", "collapsed_sessions.json"))
	helper := session.NewHelper(source, collapsed, log.Named("session"))

	approvals := approval.NewRegistry(cfg.Install.ApprovalTTL)
	packages := registry.NewManager(cfg.Storage.Path)
	flow := install.NewFlow(approvals, packages, log.Named("install"))

	metrics := monitoring.NewMetrics()
	handlers := apihttp.NewHandlers(helper, flow, packages, metrics, log.Named("http"))
	wsHandler := ws.NewHandler(helper, metrics, log.Named("ws"))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)

	// Foreign sessions
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions/:tag/tabs/:id/open", handlers.OpenTab)
	router.DELETE("/sessions/:tag", handlers.DeleteSession)

	// Sync control
	router.POST("/sync/refresh", handlers.RefreshSync)
	router.GET("/sync/status", handlers.SyncStatus)

	// Install flow
	router.POST("/install/begin", handlers.BeginInstall)
	router.POST("/install/complete", handlers.CompleteInstall)
	router.GET("/packages", handlers.ListPackages)
	router.GET("/packages/:id", handlers.GetPackage)
	router.DELETE("/packages/:id", handlers.DeletePackage)

	// Observability and change stream
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stream", wsHandler.HandleConnection)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		helper: helper,
		log:    log,
	}, nil
}

// Run starts serving and blocks until the server stops.
func (s *Server) Run() error {
	s.log.Info("starting server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// buildSource picks the fixture source in development mode, otherwise
// the sync engine client.
func buildSource(cfg *config.Config, log *logging.Logger) (session.Source, error) {
	if cfg.Sync.FixtureDir != "" {
		log.Info("using fixture session source", zap.String("dir", cfg.Sync.FixtureDir))
		source, err := session.LoadFixtures(cfg.Sync.FixtureDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load session fixtures: %w", err)
		}
		return source, nil
	}

	client := syncclient.NewClient(syncclient.Config{
		Address:    cfg.Sync.Address,
		Timeout:    cfg.Sync.Timeout,
		ServeStale: cfg.Sync.ServeStale,
		CachePath:  filepath.Join(cfg.Storage.Path, "cache", "sessions.json.gz"),
	}, log.Named("sync"))

	if !client.Probe(context.Background()) {
		log.Warn("sync engine not reachable at startup", zap.String("addr", cfg.Sync.Address))
	}
	return client, nil
}
