// Package server exposes the kiosk and the admin surface over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/config"
	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Server is the HTTP front end of a guestbook.Service.
type Server struct {
	svc    *guestbook.Service
	auth   *auth.Authenticator
	cfg    config.ServerConfig
	cookie string
	engine *gin.Engine
}

// New builds the router. gin's mode is process-wide and is set from cfg.
func New(svc *guestbook.Service, authn *auth.Authenticator, cfg *config.Config) *Server {
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		svc:    svc,
		auth:   authn,
		cfg:    cfg.Server,
		cookie: cfg.Admin.CookieName,
		engine: gin.New(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), requestID(), requestLogger(), cors(s.cfg.AllowOrigin))

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	{
		api.GET("/schema", s.schema)
		api.POST("/visits", s.submitVisit)
		api.POST("/admin/login", s.login)

		admin := api.Group("/admin")
		admin.Use(s.authRequired())
		{
			admin.POST("/logout", s.logout)
			admin.GET("/visits", s.listVisits)
			admin.PUT("/visits", s.saveVisits)
			admin.GET("/stats", s.dashboard)
			admin.GET("/export", s.export)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

// Handler returns the router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Get().Info("http server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Get().Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
