package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// DefaultTokenTTL is the fixed session lifetime.
	DefaultTokenTTL = 30 * 24 * time.Hour

	// MinSecretLength is the minimum HMAC key size in bytes.
	MinSecretLength = 32

	tokenIssuer = "stockcast"
)

var (
	ErrTokenMalformed        = errors.New("token: malformed")
	ErrTokenInvalidSignature = errors.New("token: invalid signature")
	ErrTokenExpired          = errors.New("token: expired")
	ErrSecretTooShort        = errors.New("token signing secret must be at least 32 bytes")
)

// SessionToken is the decoded content of a session token.
type SessionToken struct {
	SubjectID string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies HS256 session tokens.
// It holds no mutable state and is safe for concurrent use.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption configures a TokenCodec.
type TokenOption func(*TokenCodec)

// WithTokenTTL overrides the token lifetime, for tests.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(c *TokenCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(c *TokenCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewTokenCodec creates a codec signing with secret.
func NewTokenCodec(secret []byte, opts ...TokenOption) (*TokenCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	c := &TokenCodec{
		secret: key,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)

	return c, nil
}

// Encode issues a token for subjectID valid from now until now+TTL.
func (c *TokenCodec) Encode(subjectID string) (string, SessionToken, error) {
	if subjectID == "" {
		return "", SessionToken{}, fmt.Errorf("%w: empty subject", ErrTokenMalformed)
	}

	issuedAt := c.now().Truncate(jwt.TimePrecision)
	st := SessionToken{
		SubjectID: subjectID,
		TokenID:   uuid.NewString(),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(c.ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   st.SubjectID,
		ID:        st.TokenID,
		IssuedAt:  jwt.NewNumericDate(st.IssuedAt),
		ExpiresAt: jwt.NewNumericDate(st.ExpiresAt),
	})

	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", SessionToken{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, st, nil
}

// Decode verifies the signature and expiry of tokenString.
// The signature is checked before any claim, so a tampered expired token
// reports ErrTokenInvalidSignature.
func (c *TokenCodec) Decode(tokenString string) (SessionToken, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := c.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return SessionToken{}, mapJWTError(tokenString, err)
	}
	if !token.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return SessionToken{}, ErrTokenMalformed
	}

	st := SessionToken{
		SubjectID: claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		st.IssuedAt = claims.IssuedAt.Time
	}
	return st, nil
}

// mapJWTError translates jwt library errors to the codec's three failure kinds.
// A signature segment that does not decode is reported as a bad signature
// when the signed header and claims are intact.
func mapJWTError(tokenString string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrTokenInvalidSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed) && onlySignatureDamaged(tokenString):
		return fmt.Errorf("%w: %w", ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrTokenMalformed, err)
	}
}

// onlySignatureDamaged reports whether the header and claims segments decode
// to JSON while the remainder after the second dot is not strict base64url.
func onlySignatureDamaged(tokenString string) bool {
	parts := strings.SplitN(tokenString, ".", 3)
	if len(parts) != 3 {
		return false
	}
	enc := base64.RawURLEncoding.Strict()
	for _, seg := range parts[:2] {
		raw, err := enc.DecodeString(seg)
		if err != nil || !json.Valid(raw) {
			return false
		}
	}
	_, err := enc.DecodeString(parts[2])
	return err != nil
}
