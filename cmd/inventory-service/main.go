package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/events"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/handler"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/repository"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/seed"
	"github.com/pharmanet/pharmanet-backend/internal/inventory/service"
	"github.com/pharmanet/pharmanet-backend/pkg/config"
	"github.com/pharmanet/pharmanet-backend/pkg/httputil"
	"github.com/pharmanet/pharmanet-backend/pkg/logger"
	"github.com/pharmanet/pharmanet-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inventory-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inventory-service", cfg.Server.Environment)
	log.Info().Msg("starting Inventory Service")

	// Connect to the remote system of record
	remote, err := repository.NewPostgresRemoteStore(&cfg.Remote, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to remote store")
	}
	defer remote.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewInventoryEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize sync coordinator
	coordinator := service.NewSyncCoordinator(remote, cfg.Sync.StartOnline, log)
	coordinator.SetPublisher(publisher)

	// Initialize location registry and ledger
	registry, err := repository.NewLocationRegistry(seed.Locations())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build location registry")
	}

	ledger := service.NewLedger(registry, log,
		service.WithNotifier(publisher),
		service.WithQueue(coordinator),
		service.WithPublisher(publisher),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Provision the demo catalog before accepting traffic
	if err := seed.Provision(ctx, ledger, log); err != nil {
		log.Fatal().Err(err).Msg("failed to provision demo catalog")
	}

	// Start background sync flusher
	coordinator.StartAutoFlush(ctx, cfg.Sync.FlushInterval)
	defer coordinator.StopAutoFlush()

	// Start point-of-sale simulation if enabled
	if cfg.Simulator.Enabled {
		simulator := service.NewSimulator(ledger, cfg.Simulator.Interval, cfg.Simulator.MaxDelta, log)
		simulator.Start(ctx)
		defer simulator.Stop()
	}

	// Initialize handlers
	locationHandler := handler.NewLocationHandler(registry, log)
	itemHandler := handler.NewItemHandler(ledger, log)
	alertHandler := handler.NewAlertHandler(ledger, log)
	syncHandler := handler.NewSyncHandler(coordinator, log)
	dashboardHandler := handler.NewDashboardHandler(ledger, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(httputil.ActingUser)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			// Local frontend dev servers
			return origin == "http://localhost:3000" || origin == "http://localhost:5173"
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Name"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "inventory-service",
			"sync":     coordinator.Status(),
			"pending":  coordinator.PendingCount(),
			"remote":   remote.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1/inventory", func(r chi.Router) {
		// Pharmacy locations
		r.Route("/pharmacies", func(r chi.Router) {
			r.Get("/", locationHandler.List)
			r.Get("/{id}", locationHandler.Get)
			r.Get("/{pharmacyID}/items", itemHandler.ListByPharmacy)
			r.Get("/{pharmacyID}/movements", dashboardHandler.PharmacyMovements)

			// Per-item operations
			r.Route("/{pharmacyID}/items/{productID}", func(r chi.Router) {
				r.Get("/", itemHandler.Get)
				r.Put("/stock", itemHandler.UpdateStock)
				r.Post("/sale", itemHandler.Sale)
				r.Post("/restock", itemHandler.Restock)
				r.Post("/expired", itemHandler.Expired)
				r.Post("/reserve", itemHandler.Reserve)
				r.Post("/release", itemHandler.Release)
				r.Get("/movements", itemHandler.Movements)
				r.Get("/replay", itemHandler.Replay)
			})
		})

		// Provisioning and transfers
		r.Post("/items", itemHandler.Provision)
		r.Post("/transfers", itemHandler.Transfer)

		// Alert queries
		r.Get("/alerts/low-stock", alertHandler.LowStock)
		r.Get("/alerts/expiring", alertHandler.Expiring)
		r.Get("/availability", alertHandler.Availability)

		// Sync coordinator
		r.Route("/sync", func(r chi.Router) {
			r.Get("/status", syncHandler.Status)
			r.Post("/now", syncHandler.SyncNow)
			r.Put("/connectivity", syncHandler.Connectivity)
		})

		// Dashboard
		r.Get("/dashboard/stats", dashboardHandler.Stats)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Cancel context to stop background workers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
