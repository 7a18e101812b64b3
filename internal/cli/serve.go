package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/eventure/internal/auth"
	"github.com/Shivanand-hulikatti/eventure/internal/config"
	"github.com/Shivanand-hulikatti/eventure/internal/database"
	"github.com/Shivanand-hulikatti/eventure/internal/handler"
	"github.com/Shivanand-hulikatti/eventure/internal/notify"
	"github.com/Shivanand-hulikatti/eventure/internal/repository"
	"github.com/Shivanand-hulikatti/eventure/internal/service"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Port  string
	Store string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the reservation API and the static web directory.

With STORE=postgres (the default) the schema is applied on start. With
STORE=memory all data lives in the process and is lost on exit.

Example:
  eventure serve
  eventure serve --store memory --port 9090 --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Port, "port", "", "listen port (overrides PORT)")
	cmd.Flags().StringVar(&opts.Store, "store", "", "store backend: postgres or memory (overrides STORE)")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.Port != "" {
		cfg.Port = opts.Port
	}
	if opts.Store != "" {
		cfg.Store = opts.Store
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	log, err := setupLogger(opts.RootOptions, cfg.LogLevel)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// ── 1. Store ─────────────────────────────────────────────────────────
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// ── 2. Domain event publisher ────────────────────────────────────────
	pub, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer pub.Close()

	// ── 3. Wire up layers ────────────────────────────────────────────────
	gate := auth.NewGate(store, cfg.BcryptCost)
	svc := service.NewEventService(store, gate,
		service.WithLocation(loc),
		service.WithPublisher(pub),
		service.WithLogger(log),
	)
	router := handler.NewRouter(handler.NewEventHandler(svc, log), handler.RouterOptions{
		Logger:  log,
		Limiter: handler.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		WebDir:  cfg.WebDir,
	})

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", "http://localhost:"+cfg.Port, "store", cfg.Store)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return repository.NewMemory(), func() {}, nil
	}

	pool, err := database.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	log.Info("connected to PostgreSQL")
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return repository.NewPostgres(pool), pool.Close, nil
}

type closingPublisher interface {
	service.Publisher
	io.Closer
}

func openPublisher(cfg config.Config, log *slog.Logger) (closingPublisher, error) {
	if cfg.RabbitURL == "" {
		log.Debug("RABBIT_URL not set; domain events are dropped")
		return notify.Nop{}, nil
	}
	pub, err := notify.NewPublisher(cfg.RabbitURL, cfg.EventExchange)
	if err != nil {
		return nil, err
	}
	log.Info("publishing domain events", "exchange", cfg.EventExchange)
	return pub, nil
}
