package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = strings.Repeat("k", 32)

func TestNewService(t *testing.T) {
	if _, err := NewService("short", "admin", "pw", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
	if _, err := NewService(testSecret, "admin", "", time.Hour); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestLoginAndValidate(t *testing.T) {
	svc, err := NewService(testSecret, "admin", "s3cret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v", err)
	}
	if _, err := svc.Login("root", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong user) error = %v", err)
	}

	resp, err := svc.Login("admin", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if time.Until(resp.ExpiresAt) <= 59*time.Minute {
		t.Errorf("ExpiresAt = %v, want about an hour from now", resp.ExpiresAt)
	}

	claims, err := svc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Username != "admin" || claims.Issuer != "radarip" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateToken_Rejects(t *testing.T) {
	svc, _ := NewService(testSecret, "admin", "s3cret", time.Hour)

	t.Run("Garbage", func(t *testing.T) {
		if _, err := svc.ValidateToken("not.a.token"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Other secret", func(t *testing.T) {
		other, _ := NewService(strings.Repeat("x", 32), "admin", "s3cret", time.Hour)
		resp, _ := other.Login("admin", "s3cret")
		if _, err := svc.ValidateToken(resp.Token); err == nil {
			t.Error("expected signature error")
		}
	})

	t.Run("Expired", func(t *testing.T) {
		past, _ := NewService(testSecret, "admin", "s3cret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		resp, _ := past.Login("admin", "s3cret")
		if _, err := svc.ValidateToken(resp.Token); !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("ValidateToken(expired) error = %v", err)
		}
	})

	t.Run("Wrong algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "admin"})
		s, _ := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if _, err := svc.ValidateToken(s); err == nil {
			t.Error("expected error for alg none")
		}
	})
}
