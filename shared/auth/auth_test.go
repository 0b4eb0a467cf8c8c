package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/servicehub/marketplace/shared/apperrors"
	"github.com/servicehub/marketplace/shared/models"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherRoundTrip(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	passwords := []string{"pw123456", "correct horse battery staple", "ünïcødé-pässwörd", "x"}

	for _, pw := range passwords {
		hash, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) error: %v", pw, err)
		}
		if hash == pw {
			t.Fatalf("Hash(%q) returned the plaintext", pw)
		}
		if !h.Verify(pw, hash) {
			t.Errorf("Verify(%q) = false, want true", pw)
		}
		if h.Verify(pw+"!", hash) {
			t.Errorf("Verify with a different password returned true for %q", pw)
		}
	}
}

func TestBcryptHasherSalts(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	a, _ := h.Hash("pw123456")
	b, _ := h.Hash("pw123456")
	if a == b {
		t.Error("two hashes of the same password are identical")
	}
}

func TestBcryptHasherLengthIsCountedInBytes(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "72 ascii bytes", password: strings.Repeat("a", 72)},
		{name: "73 ascii bytes", password: strings.Repeat("a", 73), wantErr: true},
		{name: "36 two-byte runes", password: strings.Repeat("é", 36)},
		{name: "40 two-byte runes", password: strings.Repeat("é", 40), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Hash(tt.password)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Hash error: %v", err)
				}
				return
			}
			if !errors.Is(err, apperrors.ErrPasswordTooLong) {
				t.Fatalf("expected ErrPasswordTooLong, got %v", err)
			}
			if apperrors.KindOf(err) != apperrors.KindValidation {
				t.Errorf("expected a validation error, got kind %v", apperrors.KindOf(err))
			}
		})
	}
}

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService("test-secret", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return s
}

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestIssueThenValidate(t *testing.T) {
	s := newTestTokenService(t)
	tests := []struct {
		accountID string
		role      models.Role
	}{
		{"acc-alice00001", models.RoleCustomer},
		{"acc-bob0000001", models.RoleProvider},
		{"acc-admin00001", models.RoleAdmin},
		{"acc-root000001", models.RoleSuperAdmin},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			token, expiresAt, err := s.Issue(tt.accountID, tt.role)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			if d := time.Until(expiresAt); d < 23*time.Hour || d > 25*time.Hour {
				t.Errorf("expiry %v is not ~24h away", expiresAt)
			}
			id, err := s.Validate(token)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if id.AccountID != tt.accountID || id.Role != tt.role {
				t.Errorf("Validate() = %+v, want %s/%s", id, tt.accountID, tt.role)
			}
		})
	}
}

func TestValidateExpired(t *testing.T) {
	s := newTestTokenService(t)
	past := s.WithClock(func() time.Time { return time.Now().Add(-25 * time.Hour) })

	token, _, err := past.Issue("acc-alice00001", models.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := s.Validate(token); !errors.Is(err, apperrors.ErrExpiredToken) {
		t.Errorf("Validate() error = %v, want ErrExpiredToken", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	s := newTestTokenService(t)
	good, _, _ := s.Issue("acc-alice00001", models.RoleCustomer)

	other, _ := NewTokenService("another-secret", 0)
	foreign, _, _ := other.Issue("acc-alice00001", models.RoleCustomer)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		AccountID: "acc-alice00001",
		Role:      models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	noRole := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountID: "acc-alice00001",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	missingRole, _ := noRole.SignedString([]byte("test-secret"))

	tests := map[string]string{
		"malformed":       "not-a-token",
		"empty":           "",
		"tampered":        good[:len(good)-2] + "xx",
		"wrong secret":    foreign,
		"alg none":        unsigned,
		"missing role":    missingRole,
		"truncated parts": strings.Join(strings.Split(good, ".")[:2], "."),
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Validate(token); !errors.Is(err, apperrors.ErrInvalidToken) {
				t.Errorf("Validate() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestIdentityContext(t *testing.T) {
	ctx := WithIdentity(context.Background(), &Identity{AccountID: "acc-1", Role: models.RoleAdmin})
	id, ok := IdentityFromContext(ctx)
	if !ok || id.AccountID != "acc-1" {
		t.Fatalf("IdentityFromContext() = %+v, %v", id, ok)
	}
	if !id.CanActFor("acc-other") {
		t.Error("admin should act for any owner")
	}
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Error("empty context reported an identity")
	}
}
