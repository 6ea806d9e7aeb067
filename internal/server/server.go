// Package server wires the database, services, handlers and routes
// together and runs the HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codecache/codecache/internal/auth"
	"github.com/codecache/codecache/internal/config"
	"github.com/codecache/codecache/internal/executor"
	"github.com/codecache/codecache/internal/handler"
	"github.com/codecache/codecache/internal/mail"
	"github.com/codecache/codecache/internal/middleware"
	sqliteRepo "github.com/codecache/codecache/internal/repository/sqlite"
	"github.com/codecache/codecache/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain: database, token and
// password services, domain services, handlers and routes. exec may
// be nil when the snippet runner is disabled.
func New(cfg *config.Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if cfg.GitHubClientID != "" && cfg.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	} else {
		logger.Warn("GitHub OAuth not configured, /auth/github routes disabled")
	}

	var mailer mail.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.BaseURL, logger)
	} else {
		logger.Warn("SendGrid not configured, invitation emails will be logged only")
		mailer = &mail.LogMailer{Logger: logger}
	}

	authService := service.NewAuthService(db, tokens, passwords, logger)
	userService := service.NewUserService(db, logger)
	snippetService := service.NewSnippetService(db, db, db, logger)
	invitationService := service.NewInvitationService(db, db, mailer, logger)
	collabService := service.NewCollaborationService(db, db, db, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes(
		tokens,
		handler.NewAuthHandler(authService, userService, github, logger),
		handler.NewSnippetHandler(snippetService, logger),
		handler.NewInvitationHandler(invitationService, userService, logger),
		handler.NewCollaborationHandler(collabService, logger),
		handler.NewExecuteHandler(exec, snippetService, logger),
	)

	return s, nil
}

// setupRoutes registers middleware and the route table. Ordering of
// the /api/snippets subroutes matters: the literal paths must be
// registered alongside {id} so chi resolves them first.
func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	authH *handler.AuthHandler,
	snippetH *handler.SnippetHandler,
	invitationH *handler.InvitationHandler,
	collabH *handler.CollaborationHandler,
	executeH *handler.ExecuteHandler,
) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.HandleRegister)
		r.Post("/login", authH.HandleLogin)
		r.Post("/logout", authH.HandleLogout)
		r.Get("/github/login", authH.HandleGitHubLogin)
		r.Get("/github/callback", authH.HandleGitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Public or optionally-authenticated reads.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/snippets", snippetH.HandleListPublic)
			r.Get("/snippets/search", snippetH.HandleSearch)
			r.Get("/snippets/{id}", snippetH.HandleGet)
			r.Post("/snippets", snippetH.HandleCreate)
			r.Post("/snippets/{id}/run", executeH.HandleRun)
		})

		// Authenticated routes.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authH.HandleMe)
			r.Put("/me", authH.HandleUpdateMe)
			r.Get("/users/search", authH.HandleSearchUsers)

			r.Get("/snippets/mine", snippetH.HandleListMine)
			r.Get("/snippets/accessible", snippetH.HandleAccessible)
			r.Put("/snippets/{id}", snippetH.HandleUpdate)
			r.Delete("/snippets/{id}", snippetH.HandleDelete)

			r.Post("/snippets/{id}/share", invitationH.HandleShare)
			r.Get("/snippets/{id}/invitations", invitationH.HandleListForSnippet)
			r.Get("/invitations", invitationH.HandleListMine)
			r.Post("/invitations/{id}/accept", invitationH.HandleAccept)
			r.Post("/invitations/{id}/decline", invitationH.HandleDecline)

			r.Post("/snippets/{id}/collaboration-requests", collabH.HandleCreate)
			r.Get("/collaboration-requests/received", collabH.HandleListReceived)
			r.Get("/collaboration-requests/sent", collabH.HandleListSent)
			r.Get("/collaboration-requests/{id}", collabH.HandleGet)
			r.Post("/collaboration-requests/{id}/accept", collabH.HandleAccept)
			r.Post("/collaboration-requests/{id}/decline", collabH.HandleDecline)
		})
	})
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// CloseDB releases the database. Start closes it on shutdown itself;
// tests that never call Start use this in cleanup.
func (s *Server) CloseDB() error {
	return s.db.Close()
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
