package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yuvi90/chatapp/internal/models"
)

func newTestCodec(t *testing.T, cfg Config) *Codec {
	t.Helper()

	if cfg.AccessSecret == "" {
		cfg.AccessSecret = "access-secret"
	}
	if cfg.RefreshSecret == "" {
		cfg.RefreshSecret = "refresh-secret"
	}

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func testUser() models.User {
	return models.User{
		ID:       uuid.New(),
		Username: "johndoe",
		Role:     models.RoleBasic,
	}
}

func TestNew(t *testing.T) {
	t.Run("requires both secrets", func(t *testing.T) {
		_, err := New(Config{AccessSecret: "only-one"})

		require.Error(t, err)
	})

	t.Run("applies defaults", func(t *testing.T) {
		c := newTestCodec(t, Config{})

		require.Equal(t, 15*time.Minute, c.accessTTL)
		require.Equal(t, 24*time.Hour, c.refreshTTL)
		require.Equal(t, 20*time.Minute, c.oneTimeTTL)
		require.Equal(t, "HS256", c.alg.Alg())
	})

	t.Run("keeps configured lifetimes", func(t *testing.T) {
		c := newTestCodec(t, Config{AccessTTL: time.Minute, RefreshTTL: time.Hour})

		require.Equal(t, time.Minute, c.accessTTL)
		require.Equal(t, time.Hour, c.refreshTTL)
		require.Equal(t, time.Hour, c.RefreshTTL())
	})
}

func TestAccessToken(t *testing.T) {
	codec := newTestCodec(t, Config{})
	user := testUser()

	t.Run("roundtrip", func(t *testing.T) {
		issued, err := codec.IssueAccess(user)
		require.NoError(t, err)
		require.NotEmpty(t, issued.Value)
		require.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, 5*time.Second)

		claims, err := codec.ParseAccess(issued.Value)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.UserID)
		require.Equal(t, user.Username, claims.Username)
		require.Equal(t, user.Role, claims.Role)
		require.NotEmpty(t, claims.ID, "jti must be set")
	})

	t.Run("rejects token signed with another key", func(t *testing.T) {
		other := newTestCodec(t, Config{AccessSecret: "different-secret"})
		issued, err := other.IssueAccess(user)
		require.NoError(t, err)

		_, err = codec.ParseAccess(issued.Value)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		short := newTestCodec(t, Config{AccessTTL: -time.Minute})
		issued, err := short.IssueAccess(user)
		require.NoError(t, err)

		_, err = codec.ParseAccess(issued.Value)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := codec.ParseAccess("not-a-jwt")
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestRefreshToken(t *testing.T) {
	codec := newTestCodec(t, Config{})
	user := testUser()

	t.Run("roundtrip", func(t *testing.T) {
		issued, err := codec.IssueRefresh(user)
		require.NoError(t, err)

		claims, err := codec.ParseRefresh(issued.Value)
		require.NoError(t, err)
		require.Equal(t, user.ID, claims.UserID)
		require.Equal(t, user.Username, claims.Username)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		// Keys differ, so a token from one family must not verify in the other.
		issued, err := codec.IssueAccess(user)
		require.NoError(t, err)

		_, err = codec.ParseRefresh(issued.Value)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestNewOneTimeToken(t *testing.T) {
	codec := newTestCodec(t, Config{OneTimeTTL: 20 * time.Minute})

	tok, err := codec.NewOneTimeToken()
	require.NoError(t, err)

	require.Len(t, tok.Plain, 40, "20 random bytes hex encoded")
	require.Equal(t, HashToken(tok.Plain), tok.Hash)
	require.NotEqual(t, tok.Plain, tok.Hash, "plain value must never equal the stored hash")
	require.WithinDuration(t, time.Now().Add(20*time.Minute), tok.ExpiresAt, 5*time.Second)

	other, err := codec.NewOneTimeToken()
	require.NoError(t, err)
	require.NotEqual(t, tok.Plain, other.Plain, "tokens must be unique")
}

func TestHashToken(t *testing.T) {
	require.Equal(t, HashToken("abc"), HashToken("abc"), "hash must be deterministic")
	require.NotEqual(t, HashToken("abc"), HashToken("abd"))
	require.Len(t, HashToken("abc"), 64, "sha256 hex digest")
}
