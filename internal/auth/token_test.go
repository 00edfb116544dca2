package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenCodec_RejectsShortSecret(t *testing.T) {
	_, err := NewTokenCodec([]byte("too-short"))
	if !errors.Is(err, ErrSecretTooShort) {
		t.Errorf("NewTokenCodec() error = %v, want ErrSecretTooShort", err)
	}
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, WithClock(fixedClock(&now)))

	token, issued, err := codec.Encode("user-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, err := codec.Decode(token)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if decoded.SubjectID != "user-1" {
		t.Errorf("SubjectID = %q, want user-1", decoded.SubjectID)
	}
	if decoded.TokenID == "" || decoded.TokenID != issued.TokenID {
		t.Errorf("TokenID = %q, want %q", decoded.TokenID, issued.TokenID)
	}
	if !decoded.IssuedAt.Equal(now) {
		t.Errorf("IssuedAt = %v, want %v", decoded.IssuedAt, now)
	}
	if got := decoded.ExpiresAt.Sub(decoded.IssuedAt); got != DefaultTokenTTL {
		t.Errorf("ExpiresAt - IssuedAt = %v, want %v", got, DefaultTokenTTL)
	}
}

func TestTokenCodec_UniqueTokenIDs(t *testing.T) {
	codec := newTestCodec(t)

	_, first, err := codec.Encode("user-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	_, second, err := codec.Encode("user-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if first.TokenID == second.TokenID {
		t.Error("two tokens share the same jti")
	}
}

func TestTokenCodec_EncodeEmptySubject(t *testing.T) {
	codec := newTestCodec(t)
	if _, _, err := codec.Encode(""); !errors.Is(err, ErrTokenMalformed) {
		t.Errorf("Encode(\"\") error = %v, want ErrTokenMalformed", err)
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, WithClock(fixedClock(&now)), WithTokenTTL(time.Hour))

	token, _, err := codec.Encode("user-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	now = now.Add(59 * time.Minute)
	if _, err := codec.Decode(token); err != nil {
		t.Fatalf("Decode() before expiry error = %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := codec.Decode(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Decode() after expiry error = %v, want ErrTokenExpired", err)
	}
}

// flipSignatureBit flips bit of the signature character at pos.
func flipSignatureBit(t *testing.T, token string, pos int, bit uint) string {
	t.Helper()
	sigStart := strings.LastIndex(token, ".") + 1
	if sigStart == 0 || sigStart+pos >= len(token) {
		t.Fatalf("signature position %d out of range", pos)
	}
	b := []byte(token)
	b[sigStart+pos] ^= 1 << bit
	return string(b)
}

func TestTokenCodec_Tampered(t *testing.T) {
	codec := newTestCodec(t)
	token, _, err := codec.Encode("user-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	t.Run("every signature bit", func(t *testing.T) {
		sigLen := len(token) - strings.LastIndex(token, ".") - 1
		for pos := 0; pos < sigLen; pos++ {
			for bit := uint(0); bit < 8; bit++ {
				altered := flipSignatureBit(t, token, pos, bit)
				_, err := codec.Decode(altered)
				if !errors.Is(err, ErrTokenInvalidSignature) {
					t.Errorf("pos=%d bit=%d: Decode() error = %v, want ErrTokenInvalidSignature", pos, bit, err)
				}
			}
		}
	})

	t.Run("non-canonical trailing character", func(t *testing.T) {
		parts := strings.Split(token, ".")
		sig, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			t.Fatalf("decode signature: %v", err)
		}
		// 32 bytes leave two unused low bits in the final character.
		last := strings.IndexByte(base64url, parts[2][len(parts[2])-1])
		parts[2] = parts[2][:len(parts[2])-1] + string(base64url[last^0x01])
		lenient, err := base64.RawURLEncoding.DecodeString(parts[2])
		if err != nil {
			t.Fatalf("lenient decode: %v", err)
		}
		if string(lenient) != string(sig) {
			t.Fatal("altered signature should decode leniently to the same bytes")
		}

		if _, err := codec.Decode(strings.Join(parts, ".")); !errors.Is(err, ErrTokenInvalidSignature) {
			t.Errorf("Decode() error = %v, want ErrTokenInvalidSignature", err)
		}
	})

	t.Run("swapped payload", func(t *testing.T) {
		other, _, err := codec.Encode("user-2")
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		a := strings.Split(token, ".")
		b := strings.Split(other, ".")
		forged := a[0] + "." + b[1] + "." + a[2]

		if _, err := codec.Decode(forged); !errors.Is(err, ErrTokenInvalidSignature) {
			t.Errorf("Decode() error = %v, want ErrTokenInvalidSignature", err)
		}
	})

	t.Run("different secret", func(t *testing.T) {
		foreign, err := NewTokenCodec([]byte(strings.Repeat("z", MinSecretLength)))
		if err != nil {
			t.Fatalf("NewTokenCodec() error = %v", err)
		}
		if _, err := foreign.Decode(token); !errors.Is(err, ErrTokenInvalidSignature) {
			t.Errorf("Decode() error = %v, want ErrTokenInvalidSignature", err)
		}
	})
}

func TestTokenCodec_TamperedAndExpiredReportsSignature(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, WithClock(fixedClock(&now)), WithTokenTTL(time.Minute))

	token, _, err := codec.Encode("user-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	now = now.Add(time.Hour)

	_, err = codec.Decode(flipSignatureBit(t, token, 0, 2))
	if !errors.Is(err, ErrTokenInvalidSignature) {
		t.Errorf("Decode() error = %v, want ErrTokenInvalidSignature", err)
	}
	if errors.Is(err, ErrTokenExpired) {
		t.Error("signature failure should not also report expiry")
	}
}

const base64url = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

func signClaims(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return token
}

func TestTokenCodec_Malformed(t *testing.T) {
	codec := newTestCodec(t)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"two segments", "abc.def"},
		{"missing subject", signClaims(t, jwt.RegisteredClaims{Issuer: tokenIssuer, ExpiresAt: exp})},
		{"missing expiry", signClaims(t, jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "user-1"})},
		{"wrong issuer", signClaims(t, jwt.RegisteredClaims{Issuer: "someone-else", Subject: "user-1", ExpiresAt: exp})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.token)
			if !errors.Is(err, ErrTokenMalformed) {
				t.Errorf("Decode() error = %v, want ErrTokenMalformed", err)
			}
		})
	}
}

func TestTokenCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec := newTestCodec(t)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := codec.Decode(unsigned); err == nil {
		t.Error("Decode() accepted an unsigned token")
	}
}

func TestTokenCodec_CopiesSecret(t *testing.T) {
	secret := []byte(strings.Repeat("s", MinSecretLength))
	codec, err := NewTokenCodec(secret)
	if err != nil {
		t.Fatalf("NewTokenCodec() error = %v", err)
	}
	token, _, err := codec.Encode("user-1")
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	secret[0] = 'x'

	if _, err := codec.Decode(token); err != nil {
		t.Errorf("Decode() after caller mutated secret error = %v", err)
	}
}
