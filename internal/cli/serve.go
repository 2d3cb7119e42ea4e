package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/guestbook"
	"github.com/runnerr0/guestbook/internal/logger"
	"github.com/runnerr0/guestbook/internal/server"
	"github.com/runnerr0/guestbook/internal/storage"
)

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
		logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage, cfg.VisitSchema())
	if err != nil {
		return err
	}
	defer store.Close()

	svc, err := guestbook.NewFromConfig(cfg, store)
	if err != nil {
		return err
	}
	authn, err := auth.New(cfg.Admin)
	if err != nil {
		return err
	}
	if !authn.Enabled() {
		logger.Get().Warn("admin login disabled: set admin.password_hash (see `guestbook passwd`)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Get().Info("starting guestbook",
		"version", c.version,
		"backend", cfg.Storage.Backend,
		"site", cfg.Site.Name,
	)
	return server.New(svc, authn, cfg).Run(ctx)
}
