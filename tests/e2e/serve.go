package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/yuvi90/chatapp/internal/handlers"
	"github.com/yuvi90/chatapp/internal/handlers/middleware"
	"github.com/yuvi90/chatapp/internal/mail"
	"github.com/yuvi90/chatapp/internal/repository/postgres"
	"github.com/yuvi90/chatapp/internal/service/account"
	"github.com/yuvi90/chatapp/internal/service/session"
	"github.com/yuvi90/chatapp/internal/service/token"
	"github.com/yuvi90/chatapp/internal/testutil"
)

type Services struct {
	Sessions *session.Service
	Accounts *account.Service
	Users    *postgres.UserRepo

	// Mailer records deliveries so tests can read the one-time tokens
	Mailer *mail.Recorder
}

// Create db transaction and run the full server with that connection
// (one connection cause one transaction). The created transaction is passed
// to the inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		users := &postgres.UserRepo{DB: tx}
		mailer := &mail.Recorder{}

		codec, err := token.New(token.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "token codec should be created without errors")

		sessions, err := session.NewService(codec, users, nil)
		require.NoError(t, err, "session service starting error")

		accounts, err := account.NewService(users, codec, mailer, nil)
		require.NoError(t, err, "account service starting error")

		// Complete all together as router
		router := handlers.NewRouter(
			handlers.NewAuth(sessions, accounts),
			handlers.NewUser(accounts),
			handlers.NewAdmin(accounts),
			middleware.Auth(sessions),
			middleware.AdminOnly(users),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Sessions: sessions,
			Accounts: accounts,
			Users:    users,
			Mailer:   mailer,
		})
	})
}
