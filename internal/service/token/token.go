package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yuvi90/chatapp/internal/models"
)

const (
	defaultSigningMethod = "HS256"
	defaultAccessTTL     = 15 * time.Minute
	defaultRefreshTTL    = 24 * time.Hour
	defaultOneTimeTTL    = 20 * time.Minute

	// Client-facing one-time token size before hex encoding
	oneTimeTokenBytes = 20
)

// ErrTokenInvalid covers every verification failure: malformed token,
// bad signature, expired, wrong claims shape. Callers never need to know
// which one it was.
var ErrTokenInvalid = errors.New("token is not valid")

type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"uid"`
	Username string    `json:"username"`
}

// Codec config with sensible defaults
type Config struct {
	// Secret keys for access and refresh token signatures
	// Both required, should differ
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	OneTimeTTL time.Duration
}

// Codec creates and verifies signed access/refresh tokens and creates
// hashed one-time tokens. It holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	accessKey  []byte
	refreshKey []byte

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
	oneTimeTTL time.Duration
}

func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTTL)
	setDefaultDuration(&cfg.OneTimeTTL, defaultOneTimeTTL)

	return &Codec{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		oneTimeTTL: cfg.OneTimeTTL,
	}, nil
}

// RefreshTTL reports the refresh token lifetime, used as the cookie max-age.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) IssueAccess(user models.User) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(c.accessTTL)

	token := jwt.NewWithClaims(
		c.alg,
		AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:   user.ID,
			Username: user.Username,
			Role:     user.Role,
		},
	)
	signed, err := token.SignedString(c.accessKey)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (c *Codec) IssueRefresh(user models.User) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(c.refreshTTL)

	token := jwt.NewWithClaims(
		c.alg,
		RefreshClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:   user.ID,
			Username: user.Username,
		},
	)
	signed, err := token.SignedString(c.refreshKey)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

// Parse and validate access token
func (c *Codec) ParseAccess(access string) (AccessClaims, error) {
	claims := &AccessClaims{}
	err := c.parse(access, claims, c.accessKey)
	return *claims, err
}

// Parse and validate refresh token
func (c *Codec) ParseRefresh(refresh string) (RefreshClaims, error) {
	claims := &RefreshClaims{}
	err := c.parse(refresh, claims, c.refreshKey)
	return *claims, err
}

func (c *Codec) parse(token string, claims jwt.Claims, key []byte) error {
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	return nil
}

// NewOneTimeToken generates a random client-facing token. Plain goes into
// the mail link, Hash and ExpiresAt are what gets persisted.
func (c *Codec) NewOneTimeToken() (models.OneTimeToken, error) {
	b := make([]byte, oneTimeTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return models.OneTimeToken{}, fmt.Errorf("error while generating one-time token. Err: %w", err)
	}
	plain := hex.EncodeToString(b)

	return models.OneTimeToken{
		Plain:     plain,
		Hash:      HashToken(plain),
		ExpiresAt: time.Now().Add(c.oneTimeTTL),
	}, nil
}

// HashToken re-derives the stored hash from a client-submitted plain token.
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
