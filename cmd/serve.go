package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/api/handlers"
	"github.com/lemo-app/lemo-dashboard/api/services"
	"github.com/lemo-app/lemo-dashboard/internal/appconfig"
	"github.com/lemo-app/lemo-dashboard/internal/cache"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/internal/metrics"
	"github.com/lemo-app/lemo-dashboard/internal/prefs"
	"github.com/lemo-app/lemo-dashboard/internal/search"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server for the dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {

		// Load the config and set up logging
		commonSetUp()

		if !cmd.Flags().Changed("host") && appCfg.Host != "" {
			host = appCfg.Host
		}

		service, cleanup, err := newService(appCfg)
		if err != nil {
			return err
		}
		defer cleanup()

		// Create routes
		r := mux.NewRouter()
		handlers.Register(r, service)

		srv := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("could not shut down server")
			}
		}()

		log.Info().Str("api", appCfg.API.URL).Msg(fmt.Sprintf("Server started at %s:%d", host, port))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("could not start server: %w", err)
		}
		log.Info().Msg("Server stopped")
		return nil
	},
}

// newService opens everything the server depends on. The returned cleanup
// closes them in reverse order; on error whatever was already opened has
// been closed.
func newService(cfg *appconfig.Config) (*services.Service, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// Open the preferences store
	store, err := prefs.Open(cfg.Preferences.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open preferences store at %s: %w", cfg.Preferences.Path, err)
	}
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close preferences store")
		}
	})

	// Initialize the profile cache
	profiles, closeCache, err := initializeProfileCache(cfg.Cache)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize profile cache: %w", err)
	}
	closers = append(closers, closeCache)

	// Initialize event publisher
	publisher, err := initializePublisher(cfg.Pulsar)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	closers = append(closers, publisher.Close)

	m := metrics.New()

	// Initialise the Lemo API client
	lemoClient := services.NewLemoClient(cfg.API.URL, &http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: m.Transport(http.DefaultTransport),
	})

	return &services.Service{
		Config:    cfg,
		API:       lemoClient,
		Prefs:     store,
		Profiles:  profiles,
		Publisher: publisher,
		Search:    search.NewDebouncer(cfg.Search.Debounce),
		Metrics:   m,
	}, cleanup, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&host, "host", "0.0.0.0", "host to run the server on")
	serveCmd.Flags().IntVar(&port, "port", 8080, "port to run the server on")
}

// initializeProfileCache uses Redis when an address is configured and an
// in-process cache otherwise.
func initializeProfileCache(cfg appconfig.CacheConfig) (cache.ProfileCache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(cfg.TTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}

	log.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis profile cache")
	return cache.NewRedis(client, cfg.TTL), func() { client.Close() }, nil
}

// initializePublisher publishes audit events to Pulsar when a URL is
// configured and drops them otherwise.
func initializePublisher(cfg appconfig.PulsarConfig) (events.Notifier, error) {
	if cfg.URL == "" {
		log.Info().Msg("Pulsar not configured; audit events are not published")
		return events.NopNotifier{}, nil
	}
	return events.NewEventPublisher(cfg.URL, cfg.Topic)
}
