package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignAndVerify(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{
		Email:            "student@example.edu",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "google:123"},
	})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	claims, err := VerifyJWT(token)
	if err != nil {
		t.Fatalf("VerifyJWT: %v", err)
	}
	if claims.Subject != "google:123" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if claims.Email != "student@example.edu" {
		t.Fatalf("unexpected email %q", claims.Email)
	}
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	if _, err := VerifyJWT(strings.Repeat("x", 12)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	past := time.Now().Add(-time.Hour)
	token, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user-1",
		IssuedAt:  jwt.NewNumericDate(past.Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(past),
	}})
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, err := VerifyJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSecretRequiredOutsideDev(t *testing.T) {
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "staff-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString([]byte(devSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	for _, env := range []string{"production", "prod", "staging", "prd"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("ENV", env)
			t.Setenv("JWT_SECRET", "")

			if _, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"}}); !errors.Is(err, errMissingSecret) {
				t.Fatalf("expected missing secret error from SignJWT, got %v", err)
			}
			if _, err := VerifyJWT(forged); !errors.Is(err, errMissingSecret) {
				t.Fatalf("token signed with the dev secret must not verify, got %v", err)
			}
		})
	}
}

func TestDevSecretInDevLikeEnvs(t *testing.T) {
	for _, env := range []string{"", "dev", "local"} {
		t.Run("env="+env, func(t *testing.T) {
			t.Setenv("ENV", env)
			t.Setenv("JWT_SECRET", "")

			token, err := SignJWT(Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "student-1"}})
			if err != nil {
				t.Fatalf("SignJWT: %v", err)
			}
			if _, err := VerifyJWT(token); err != nil {
				t.Fatalf("VerifyJWT: %v", err)
			}
		})
	}
}
