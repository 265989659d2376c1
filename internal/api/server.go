// Package api exposes the HTTP surface: contact capture plus the audio and
// image storage proxy.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"quantumelodic/internal/api/middleware"
	"quantumelodic/internal/config"
	"quantumelodic/internal/contacts"
	"quantumelodic/internal/kv"
	"quantumelodic/internal/resolver"
	"quantumelodic/internal/storage"
)

// Server wires the gateway, resolver and contact log behind gin routes.
type Server struct {
	cfg      *config.Config
	gateway  *storage.Gateway
	resolver *resolver.Resolver
	contacts *contacts.Log
	store    kv.Store
	tasks    *asynq.Client
	log      *slog.Logger
	router   *gin.Engine
	server   *http.Server
}

// New constructs a Server. The asynq client may be nil, in which case uploads
// skip analysis scheduling.
func New(cfg *config.Config, gateway *storage.Gateway, res *resolver.Resolver, contactLog *contacts.Log, store kv.Store, tasks *asynq.Client, log *slog.Logger) *Server {
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:      cfg,
		gateway:  gateway,
		resolver: res,
		contacts: contactLog,
		store:    store,
		tasks:    tasks,
		log:      log,
		router:   gin.New(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Length"}
	corsConfig.MaxAge = 10 * time.Minute

	s.router.Use(gin.Recovery())
	s.router.Use(cors.New(corsConfig))
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestLogger(s.log))
}

func (s *Server) setupRoutes() {
	base := s.router.Group(s.cfg.Server.BasePath)

	base.GET("/health", s.handleHealth)

	protected := base.Group("", middleware.RequireToken(s.cfg.Server.Token))
	{
		protected.POST("/subscribe", s.handleSubscribe)
		protected.GET("/contacts", s.handleContacts)

		protected.POST("/audio/upload", s.handleAudioUpload)
		protected.GET("/audio", s.handleAudioList)
		protected.GET("/audio/:fileName", s.handleAudioURL)
		protected.GET("/audio/:fileName/analysis", s.handleAudioAnalysis)
		protected.DELETE("/audio/:fileName", s.handleAudioDelete)

		protected.POST("/images/upload", s.handleImageUpload)
		protected.GET("/images", s.handleImageList)
		protected.GET("/images/:fileName", s.handleImageURL)
		protected.DELETE("/images/:fileName", s.handleImageDelete)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.server = &http.Server{
		Addr:    s.cfg.Server.Address,
		Handler: s.router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info("api listening", "address", s.cfg.Server.Address, "base_path", s.cfg.Server.BasePath)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
