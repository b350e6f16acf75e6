package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/repository"
	perrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
)

// Claims are the identity attributes embedded in signed access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// CodecConfig carries the immutable signing settings for a TokenCodec.
type CodecConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// TokenCodec signs and verifies HS256 access tokens.
type TokenCodec struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewTokenCodec builds a codec from the provided settings. An empty signing
// secret is a fatal configuration error.
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	if cfg.Secret == "" {
		return nil, perrors.New(perrors.KindConfig, "auth.codec", "jwt signing secret is not configured")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &TokenCodec{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// WithClock overrides the time source, used by expiry tests.
func (c *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		c.now = now
	}
	return c
}

// Issue mints a signed access token for the credential and returns it with
// its expiry instant.
func (c *TokenCodec) Issue(credential *repository.Credential) (string, time.Time, error) {
	now := c.now()
	expiresAt := now.Add(c.ttl)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   credential.ID,
			Issuer:    c.issuer,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: credential.Username,
		Email:    credential.Email,
		Role:     credential.Role(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, perrors.Wrap(perrors.KindDomain, "auth.codec", "failed to sign token", err)
	}
	return signed, expiresAt, nil
}

// Verify validates signature, algorithm, issuer and audience. Expiry is
// enforced with zero leeway unless checkExpiry is false, which exists solely
// for the refresh and logout paths that must trust claims of an already
// expired access token.
func (c *TokenCodec) Verify(tokenString string, checkExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithLeeway(0),
	}
	if checkExpiry {
		opts = append(opts,
			jwt.WithIssuer(c.issuer),
			jwt.WithAudience(c.audience),
			jwt.WithExpirationRequired(),
		)
	} else {
		// signature still verified; claims checked by hand below
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindAuth, "auth.codec", "token verification failed", err)
	}
	if !token.Valid {
		return nil, perrors.New(perrors.KindAuth, "auth.codec", "invalid token")
	}

	if !checkExpiry {
		if claims.Issuer != c.issuer {
			return nil, perrors.New(perrors.KindAuth, "auth.codec", "invalid token issuer")
		}
		if !containsAudience(claims.Audience, c.audience) {
			return nil, perrors.New(perrors.KindAuth, "auth.codec", "invalid token audience")
		}
	}
	if claims.Subject == "" {
		return nil, perrors.New(perrors.KindAuth, "auth.codec", "token missing subject")
	}
	return claims, nil
}

func containsAudience(audience jwt.ClaimStrings, expected string) bool {
	for _, aud := range audience {
		if aud == expected {
			return true
		}
	}
	return false
}

// TTL reports the configured access token lifetime.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}
