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

	"github.com/yuvi90/chatapp/internal/mail"
	"github.com/yuvi90/chatapp/internal/repository/postgres"
	"github.com/yuvi90/chatapp/internal/service/account"
	"github.com/yuvi90/chatapp/internal/service/session"
	"github.com/yuvi90/chatapp/internal/service/token"
	"github.com/yuvi90/chatapp/internal/testutil"
)

func Test_AuthHandler(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Run http server with the auth handlers over production services
	withTx := func(t *testing.T, fn func(url string, sessions *session.Service)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := &postgres.UserRepo{DB: tx}

			codec, err := token.New(token.Config{
				AccessSecret:  "test-access-secret",
				RefreshSecret: "test-refresh-secret",
			})
			require.NoError(t, err)

			sessions, err := session.NewService(codec, users, nil)
			require.NoError(t, err, "session service starting error")

			accounts, err := account.NewService(users, codec, &mail.Recorder{}, nil)
			require.NoError(t, err, "account service starting error")

			srv := httptest.NewServer(NewAuth(sessions, accounts).Handler())
			defer srv.Close()

			fn(srv.URL, sessions)
		})
	}

	registerBody := `{
		"firstName": "John",
		"lastName": "Doe",
		"username": "johndoe",
		"email": "john@example.com",
		"password": "password123"
	}`

	register := func(t *testing.T, url string) {
		t.Helper()

		resp, err := http.Post(url+"/register", "application/json", strings.NewReader(registerBody))
		require.NoError(t, err)
		defer resp.Body.Close() //nolint:errcheck
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	login := func(t *testing.T, url string) *http.Response {
		t.Helper()

		data := `{"username": "johndoe", "password": "password123"}`
		resp, err := http.Post(url+"/login", "application/json", strings.NewReader(data))
		require.NoError(t, err)
		return resp
	}

	refreshCookieOf := func(t *testing.T, resp *http.Response) *http.Cookie {
		t.Helper()

		for _, c := range resp.Cookies() {
			if c.Name == "jwt" {
				return c
			}
		}
		t.Fatal("jwt cookie not found in response")
		return nil
	}

	t.Run("register ok", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			resp, err := http.Post(url+"/register", "application/json", strings.NewReader(registerBody))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.JSONEq(t, `
				{
					"statusCode": 201,
					"status": true,
					"message": "User created successfully!"
				}`, string(body))
			require.Equal(t, 0, len(resp.Cookies()), "register must not start a session")
		})
	})

	t.Run("register duplicate fails", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			register(t, url)

			resp, err := http.Post(url+"/register", "application/json", strings.NewReader(registerBody))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusConflict, resp.StatusCode)
			require.Contains(t, string(body), "already exists")
		})
	})

	t.Run("register validation fails", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			data := `{"firstName": "Jo", "username": "johndoe", "email": "bad", "password": "123"}`

			resp, err := http.Post(url+"/register", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Contains(t, string(body), "firstName")
			require.Contains(t, string(body), "email")
			require.Contains(t, string(body), "password")
		})
	})

	t.Run("login ok", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			register(t, url)

			resp := login(t, url)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), `"accessToken"`)
			require.Contains(t, string(body), `"username":"johndoe"`)
			require.NotContains(t, string(body), "password_hash", "hash must never leak")

			cookie := refreshCookieOf(t, resp)
			require.True(t, cookie.HttpOnly, "refresh cookie should be HttpOnly")
			require.Equal(t, "/", cookie.Path, "refresh cookie should be available on / path")
			require.Equal(t, http.SameSiteStrictMode, cookie.SameSite, "refresh cookie should be SameSite Strict")
			require.InDelta(t, (24 * time.Hour).Seconds(), cookie.MaxAge, 5, "max age should be refresh TTL")
			require.NotEmpty(t, cookie.Value, "refresh cookie should not be empty")
		})
	})

	t.Run("login unknown user", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			data := `{"username": "nobody", "password": "password123"}`

			resp, err := http.Post(url+"/login", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.JSONEq(t, `
				{
					"statusCode": 400,
					"status": false,
					"message": "User not found!"
				}`, string(body))
			require.Equal(t, 0, len(resp.Cookies()), "no cookies should be set on login error")
		})
	})

	t.Run("login wrong password", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			register(t, url)

			data := `{"username": "johndoe", "password": "wrong-password"}`
			resp, err := http.Post(url+"/login", "application/json", strings.NewReader(data))
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Contains(t, string(body), "Invalid password!")
		})
	})

	t.Run("refresh ok", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			register(t, url)
			loginResp := login(t, url)
			defer loginResp.Body.Close() //nolint:errcheck
			cookie := refreshCookieOf(t, loginResp)

			req, err := http.NewRequest(http.MethodGet, url+"/refresh", nil)
			require.NoError(t, err)
			req.AddCookie(cookie)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equalf(t, http.StatusCreated, resp.StatusCode, "not expected code. Body: %s", string(body))
			require.Contains(t, string(body), `"accessToken"`)
			require.Contains(t, string(body), "Success!")
		})
	})

	t.Run("refresh without cookie", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			resp, err := http.Get(url + "/refresh")
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	})

	t.Run("refresh with made up cookie", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			req, err := http.NewRequest(http.MethodGet, url+"/refresh", nil)
			require.NoError(t, err)
			req.AddCookie(&http.Cookie{Name: "jwt", Value: "made.up.token"})

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	})

	t.Run("logout clears cookie and kills session", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			register(t, url)
			loginResp := login(t, url)
			defer loginResp.Body.Close() //nolint:errcheck
			cookie := refreshCookieOf(t, loginResp)

			req, err := http.NewRequest(http.MethodGet, url+"/logout", nil)
			require.NoError(t, err)
			req.AddCookie(cookie)

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusNoContent, resp.StatusCode)

			cleared := refreshCookieOf(t, resp)
			require.Less(t, cleared.MaxAge, 0, "logout must expire the cookie")

			// The refresh token must be dead after logout
			req, err = http.NewRequest(http.MethodGet, url+"/refresh", nil)
			require.NoError(t, err)
			req.AddCookie(cookie)

			resp2, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp2.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusForbidden, resp2.StatusCode)
		})
	})

	t.Run("logout without cookie is a no-op", func(t *testing.T) {
		withTx(t, func(url string, _ *session.Service) {
			resp, err := http.Get(url + "/logout")
			require.NoError(t, err)
			defer resp.Body.Close() //nolint:errcheck

			require.Equal(t, http.StatusNoContent, resp.StatusCode)
			require.Equal(t, 0, len(resp.Cookies()), "nothing to clear without a cookie")
		})
	})
}
