// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/communityos/ticketing/internal/config"
	"github.com/communityos/ticketing/internal/database"
	"github.com/communityos/ticketing/internal/handler"
	"github.com/communityos/ticketing/internal/message"
	"github.com/communityos/ticketing/internal/policy"
	"github.com/communityos/ticketing/internal/repository"
	"github.com/communityos/ticketing/internal/service"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	if err := run(log); err != nil {
		log.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := database.Migrate(cfg.Postgres); err != nil {
		return err
	}
	pool, err := database.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("connected to postgres")

	// Repositories.
	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	grantRepo := repository.NewGrantRepository(pool)

	// Policy and engines.
	cache := policy.NewPermissionCache(grantRepo, cfg.Policy.CacheFreshness, nil)
	pol := policy.New(grantRepo, cache)
	renderer := message.NewRenderer()

	ticketSvc := service.NewTicketService(ticketRepo, eventRepo, pol, renderer, log, nil)
	regSvc := service.NewRegistrationService(regRepo, eventRepo, ticketSvc, pol, log, nil)
	eventSvc := service.NewEventService(eventRepo, regRepo, pol, log, nil)
	userSvc := service.NewUserService(userRepo, pol, log, nil)

	h := handler.New(eventSvc, regSvc, ticketSvc, userSvc, pol)

	// Router.
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(handler.Logger(log))

	r.Get("/health", handler.HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Post("/", h.CreateEvent)
		r.Get("/", h.ListEvents)
		r.Get("/{id}", h.GetEvent)
		r.Patch("/{id}/status", h.UpdateEventStatus)
		r.Delete("/{id}", h.DeleteEvent)
		r.Post("/{id}/register", h.Register)
		r.Post("/{id}/register-guest", h.RegisterGuest)
		r.Delete("/{id}/registration", h.CancelRegistration)
		r.Delete("/{id}/registrations/{userID}", h.CancelRegistration)
		r.Get("/{id}/registrations", h.ListRegistrations)
		r.Get("/{id}/attendees/export", h.ExportAttendees)
		r.Get("/{id}/tickets", h.ListTickets)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Get("/{id}", h.GetTicket)
		r.Post("/{id}/assign", h.AssignTicket)
		r.Post("/{id}/payment-sent", h.MarkPaymentSent)
		r.Post("/{id}/paid", h.MarkPaid)
		r.Post("/{id}/board", h.MarkBoarded)
		r.Put("/{id}/stage", h.SetTicketStage)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/ensure", h.EnsureUser)
		r.Put("/{id}/role", h.SetUserRole)
		r.Delete("/{id}", h.DeleteUser)
	})

	r.Route("/permissions", func(r chi.Router) {
		r.Post("/grant", h.GrantPermission)
		r.Post("/revoke", h.RevokePermission)
	})

	r.Patch("/registrations/{id}", h.UpdateRegistration)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
