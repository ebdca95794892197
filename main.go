// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-bookshop/cart"
	"go-bookshop/catalog"
	"go-bookshop/config"
	"go-bookshop/controllers"
	"go-bookshop/middleware"
	"go-bookshop/orders"
	"go-bookshop/printorders"
	"go-bookshop/routes"
	"go-bookshop/store"
	"go-bookshop/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bookshop",
		Short:         "Book and print storefront API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSweepCmd())
	rootCmd.AddCommand(newSeedCatalogCmd())
	rootCmd.AddCommand(newCreateAdminCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the configuration, installs the logger and opens the store
func setup(ctx context.Context) (*config.Config, *store.Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	// Set the JWT secret key
	utils.JwtKey = cfg.JWTSecret

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	backend, err := store.Open(openCtx, cfg.StoreBackend, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	return cfg, backend, nil
}

func closeBackend(backend *store.Backend) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := backend.Close(ctx); err != nil {
		slog.Error("Failed to close store", "error", err)
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, backend, err := setup(ctx)
			if err != nil {
				return err
			}
			defer closeBackend(backend)
			return serve(ctx, cfg, backend)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, backend *store.Backend) error {
	// Initialize EmailService
	emailService, err := utils.NewEmailService(cfg.EmailProvider, cfg.EmailAPIKey, cfg.EmailSender)
	if err != nil {
		return err
	}

	var localCache utils.Cache = utils.NewMemoryCache()
	if cfg.CartCachePath != "" {
		fc, err := utils.OpenFileCache(cfg.CartCachePath)
		if err != nil {
			return err
		}
		localCache = fc
	}

	registry := cart.NewRegistry(backend.Carts, cfg.CartRetention,
		cart.WithCache(cart.NewSnapshotCache(localCache)),
		cart.WithRetention(cfg.CartRetention),
	)
	janitor := &cart.Janitor{
		Carts:     backend.Carts,
		Registry:  registry,
		Interval:  cfg.SweepInterval,
		Retention: cfg.CartRetention,
	}
	go janitor.Run(ctx)

	submitLimiter := middleware.NewRateLimiter(cfg.CheckoutRateLimit, time.Minute)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				submitLimiter.Cleanup(now)
			}
		}
	}()

	cookies := sessions.NewCookieStore(cfg.SessionKey)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}

	// Initialize controllers
	catalogService := catalog.NewService(backend.Books)
	orderService := orders.NewService(backend.Carts, emailService)
	printOrderService := printorders.NewService(backend.PrintOrders, emailService)
	c := routes.Controllers{
		Users:       controllers.NewUserController(backend.Users),
		Books:       controllers.NewBookController(catalogService),
		Cart:        controllers.NewCartController(registry, catalogService, orderService, cookies),
		Orders:      controllers.NewOrderController(orderService),
		PrintOrders: controllers.NewPrintOrderController(printOrderService),
	}

	// Set up the router
	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)
	routes.RegisterRoutes(router, c, submitLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server is running", "port", cfg.Port, "store", cfg.StoreBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
