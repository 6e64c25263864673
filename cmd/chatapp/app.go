package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuvi90/chatapp/internal/db"
	"github.com/yuvi90/chatapp/internal/handlers"
	"github.com/yuvi90/chatapp/internal/handlers/middleware"
	"github.com/yuvi90/chatapp/internal/logger"
	"github.com/yuvi90/chatapp/internal/mail"
	"github.com/yuvi90/chatapp/internal/repository/postgres"
	"github.com/yuvi90/chatapp/internal/service/account"
	"github.com/yuvi90/chatapp/internal/service/session"
	"github.com/yuvi90/chatapp/internal/service/token"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	log := logger.New(c.Environment, c.LogLevel)

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	userRepo := &postgres.UserRepo{DB: pool}

	// Initialize services
	codec, err := token.New(token.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	mailer := mail.NewSMTP(mail.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		User:     c.SMTPUser,
		Password: c.SMTPPassword,
		BaseURL:  c.BaseURL,
	})

	sessionService, err := session.NewService(codec, userRepo, nil)
	if err != nil {
		return nil, fmt.Errorf("error while creating session service. Err: %w", err)
	}

	accountService, err := account.NewService(userRepo, codec, mailer, log)
	if err != nil {
		return nil, fmt.Errorf("error while creating account service. Err: %w", err)
	}

	// Initialize handlers
	mux := handlers.NewRouter(
		handlers.NewAuth(sessionService, accountService),
		handlers.NewUser(accountService),
		handlers.NewAdmin(accountService),
		middleware.Auth(sessionService),
		middleware.AdminOnly(userRepo),
		middleware.Recover(log),
		middleware.Logger(log),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
