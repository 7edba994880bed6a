// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/eventra/registration-service/internal/database"
	"github.com/eventra/registration-service/internal/handler"
	"github.com/eventra/registration-service/internal/notify"
	"github.com/eventra/registration-service/internal/repository"
	"github.com/eventra/registration-service/internal/service"
)

func main() {
	// A .env file is optional; real deployments set the environment.
	_ = godotenv.Load()

	ctx := context.Background()

	// ── 1. Connect to PostgreSQL ──────────────────────────────────────────
	pool, err := database.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()
	log.Println("✓ Connected to PostgreSQL")

	// ── 2. Notification sink ──────────────────────────────────────────────
	var sink notify.Sink = notify.NopSink{}
	if url := os.Getenv("RABBITMQ_URL"); url != "" {
		broker, err := notify.NewBroker(url, getEnv("EVENTS_EXCHANGE", "em.events"))
		if err != nil {
			// Notifications are best-effort; the service still runs.
			log.Printf("rabbitmq unavailable, notifications disabled: %v", err)
		} else {
			defer broker.Close()
			sink = broker
			log.Println("✓ Connected to RabbitMQ")
		}
	}

	// ── 3. Wire up layers ────────────────────────────────────────────────
	store := repository.NewStore(pool)
	guard := service.NewCapacityGuard(store, getDurationEnv("REGISTRATION_LOCK_WAIT", service.DefaultLockWait))

	eventSvc := service.NewEventService(store.Users, store.Events, store.Registrations, sink)
	regSvc := service.NewRegistrationService(store.Users, store.Events, store.Registrations, guard, sink)
	ticketSvc := service.NewTicketService(store.Users, store.Events, store.Registrations)

	eventHandler := handler.NewEventHandler(eventSvc)
	regHandler := handler.NewRegistrationHandler(regSvc)
	ticketHandler := handler.NewTicketHandler(ticketSvc)

	// ── 4. Build the router ───────────────────────────────────────────────
	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(handler.Logger)          // structured access log
	r.Use(handler.CORS)

	// Health
	r.Get("/health", handler.HealthCheck)

	// API routes
	r.Route("/events", func(r chi.Router) {
		r.Get("/", eventHandler.ListEvents)
		r.Post("/", eventHandler.CreateEvent)
		r.Get("/mine", eventHandler.ListMyEvents)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", eventHandler.GetEvent)
			r.Patch("/", eventHandler.UpdateEvent)
			r.Delete("/", eventHandler.DeleteEvent)
			r.Post("/publish", eventHandler.PublishEvent)
			r.Post("/cancel", eventHandler.CancelEvent)
			r.Post("/complete", eventHandler.CompleteEvent)
			r.Post("/register", regHandler.Register)
			r.Get("/registrations", regHandler.ListEventRegistrations)
		})
	})
	r.Route("/registrations", func(r chi.Router) {
		r.Get("/my", regHandler.ListMyRegistrations)
		r.Get("/{id}", regHandler.GetRegistration)
		r.Post("/{id}/cancel", regHandler.CancelRegistration)
	})
	r.Post("/tickets/validate", ticketHandler.Validate)

	// ── 5. Start server with graceful shutdown ────────────────────────────
	port := getEnv("PORT", "8080")
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Run in background goroutine so we can listen for shutdown signal.
	go func() {
		log.Printf("✓ Server listening on http://localhost:%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	log.Println("server stopped")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
