package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/yuvi90/chatapp/internal/handlers/middleware"
	"github.com/yuvi90/chatapp/internal/mail"
	"github.com/yuvi90/chatapp/internal/repository/postgres"
	"github.com/yuvi90/chatapp/internal/service/account"
	"github.com/yuvi90/chatapp/internal/service/session"
	"github.com/yuvi90/chatapp/internal/service/token"
	"github.com/yuvi90/chatapp/internal/testutil"
)

// mailTokenOfKind waits for an asynchronous delivery of the given kind and
// returns the newest token of that kind
func mailTokenOfKind(t *testing.T, mailer *mail.Recorder, kind string) string {
	t.Helper()

	var token string
	require.Eventually(t, func() bool {
		for _, m := range mailer.Sent() {
			if m.Kind == kind {
				token = m.Token
			}
		}
		return token != ""
	}, 2*time.Second, 10*time.Millisecond, "mail should be sent in background")

	return token
}

func resetMailToken(t *testing.T, mailer *mail.Recorder) string {
	t.Helper()
	return mailTokenOfKind(t, mailer, "reset")
}

func Test_UserHandler(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	type env struct {
		url      string
		accounts *account.Service
		sessions *session.Service
		mailer   *mail.Recorder
	}

	// Run http server with the user routes behind the real auth middleware
	withTx := func(t *testing.T, fn func(e env)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &postgres.UserRepo{DB: tx}
			mailer := &mail.Recorder{}

			codec, err := token.New(token.Config{
				AccessSecret:  "test-access-secret",
				RefreshSecret: "test-refresh-secret",
			})
			require.NoError(t, err)

			sessions, err := session.NewService(codec, users, nil)
			require.NoError(t, err)

			accounts, err := account.NewService(users, codec, mailer, nil)
			require.NoError(t, err)

			h := NewUser(accounts).Handler(middleware.Auth(sessions))
			srv := httptest.NewServer(h)
			defer srv.Close()

			fn(env{url: srv.URL, accounts: accounts, sessions: sessions, mailer: mailer})
		})
	}

	// Register a user and return the plain verification token from the mail
	registerUser := func(t *testing.T, e env, username string) string {
		t.Helper()

		_, err := e.accounts.Register(t.Context(), account.RegisterParams{
			FirstName: "John",
			LastName:  "Doe",
			Username:  username,
			Email:     username + "@example.com",
			Password:  "password123",
		})
		require.NoError(t, err)

		return mailTokenOfKind(t, e.mailer, "verification")
	}

	// Log the user in and return a bearer access token
	loginUser := func(t *testing.T, e env, username string) string {
		t.Helper()

		result, err := e.sessions.Login(t.Context(), username, "password123")
		require.NoError(t, err)
		return "Bearer " + result.Access.Value
	}

	do := func(t *testing.T, method string, url string, body string, bearer string) (*http.Response, string) {
		t.Helper()

		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, url, reader)
		require.NoError(t, err)
		if bearer != "" {
			req.Header.Set("Authorization", bearer)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		respBody, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck

		return resp, string(respBody)
	}

	t.Run("verify email ok", func(t *testing.T) {
		withTx(t, func(e env) {
			plainToken := registerUser(t, e, "verifyme")

			resp, body := do(t, http.MethodGet, e.url+"/verify-email/"+plainToken, "", "")

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "Email verified successfully!")
		})
	})

	t.Run("verify email bad token gets 489", func(t *testing.T) {
		withTx(t, func(e env) {
			resp, body := do(t, http.MethodGet, e.url+"/verify-email/deadbeef", "", "")

			require.Equal(t, 489, resp.StatusCode)
			require.Contains(t, body, "Invalid or expired token!")
		})
	})

	t.Run("resend verification requires auth", func(t *testing.T) {
		withTx(t, func(e env) {
			resp, _ := do(t, http.MethodPost, e.url+"/resend-verification-email", "", "")

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})

	t.Run("resend verification ok", func(t *testing.T) {
		withTx(t, func(e env) {
			registerUser(t, e, "resendme")
			bearer := loginUser(t, e, "resendme")

			resp, body := do(t, http.MethodPost, e.url+"/resend-verification-email", "", bearer)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "Verification email sent successfully!")
		})
	})

	t.Run("forgot and reset password flow", func(t *testing.T) {
		withTx(t, func(e env) {
			registerUser(t, e, "forgetful")

			resp, body := do(t, http.MethodPost, e.url+"/forgot-password",
				`{"email": "forgetful@example.com"}`, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			resetToken := resetMailToken(t, e.mailer)

			resp, body = do(t, http.MethodPost, e.url+"/reset-password/"+resetToken,
				`{"newPassword": "newpassword", "confirmPassword": "newpassword"}`, "")
			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "Password reset successfully!")

			// Old password dead, new one works
			_, err := e.sessions.Login(t.Context(), "forgetful", "password123")
			require.Error(t, err)

			_, err = e.sessions.Login(t.Context(), "forgetful", "newpassword")
			require.NoError(t, err)
		})
	})

	t.Run("forgot password for unknown email", func(t *testing.T) {
		withTx(t, func(e env) {
			resp, _ := do(t, http.MethodPost, e.url+"/forgot-password",
				`{"email": "nobody@example.com"}`, "")

			require.Equal(t, http.StatusNotFound, resp.StatusCode)
		})
	})

	t.Run("reset password with consumed token", func(t *testing.T) {
		withTx(t, func(e env) {
			registerUser(t, e, "repeated")

			resp, _ := do(t, http.MethodPost, e.url+"/forgot-password",
				`{"email": "repeated@example.com"}`, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resetToken := resetMailToken(t, e.mailer)

			resp, _ = do(t, http.MethodPost, e.url+"/reset-password/"+resetToken,
				`{"newPassword": "newpassword", "confirmPassword": "newpassword"}`, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp, body := do(t, http.MethodPost, e.url+"/reset-password/"+resetToken,
				`{"newPassword": "again123", "confirmPassword": "again123"}`, "")
			require.Equal(t, 489, resp.StatusCode)
			require.Contains(t, body, "Invalid or expired token!")
		})
	})

	t.Run("reset password confirmation mismatch", func(t *testing.T) {
		withTx(t, func(e env) {
			resp, body := do(t, http.MethodPost, e.url+"/reset-password/sometoken",
				`{"newPassword": "newpassword", "confirmPassword": "different"}`, "")

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Contains(t, body, "Passwords do not match!")
		})
	})

	t.Run("change password ok", func(t *testing.T) {
		withTx(t, func(e env) {
			registerUser(t, e, "changer")
			bearer := loginUser(t, e, "changer")

			resp, body := do(t, http.MethodPost, e.url+"/change-password",
				`{"oldPassword": "password123", "newPassword": "newpassword", "confirmPassword": "newpassword"}`,
				bearer)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
			require.Contains(t, body, "Password changed successfully!")

			_, err := e.sessions.Login(t.Context(), "changer", "newpassword")
			require.NoError(t, err)
		})
	})

	t.Run("change password wrong old password", func(t *testing.T) {
		withTx(t, func(e env) {
			registerUser(t, e, "stubborn")
			bearer := loginUser(t, e, "stubborn")

			resp, body := do(t, http.MethodPost, e.url+"/change-password",
				`{"oldPassword": "wrong", "newPassword": "newpassword", "confirmPassword": "newpassword"}`,
				bearer)

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Contains(t, body, "Old password is incorrect!")
		})
	})
}
