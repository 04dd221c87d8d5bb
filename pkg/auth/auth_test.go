package auth

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/cmayhew/weft/pkg/middleware"
	"github.com/cmayhew/weft/pkg/web"
)

func newService() *Service {
	return NewService([]byte("test-secret"), time.Hour)
}

func TestRegisterLoginVerifyRoundTrip(t *testing.T) {
	svc := newService()

	if err := svc.Register("alice", "s3cret"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	token, err := svc.Login("alice", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("Login() returned an empty token")
	}

	principal, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if principal.Subject != "alice" {
		t.Errorf("Subject = %q, want alice", principal.Subject)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newService()

	if err := svc.Register("alice", "a"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := svc.Register("alice", "b"); !errors.Is(err, ErrUserExists) {
		t.Errorf("Register() error = %v, want ErrUserExists", err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newService()
	svc.Register("alice", "right")

	if _, err := svc.Login("alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(wrong password) error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login("nobody", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login(unknown user) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyRejectsForgedToken(t *testing.T) {
	svc := newService()
	svc.Register("alice", "pw")
	token, _ := svc.Login("alice", "pw")

	other := NewService([]byte("different-secret"), time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}

	if _, err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(garbage) error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewService([]byte("s"), -time.Minute)
	svc.Register("alice", "pw")
	token, _ := svc.Login("alice", "pw")

	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify(expired) error = %v, want ErrInvalidToken", err)
	}
}

func TestRequireAuthShortCircuitsWithoutToken(t *testing.T) {
	svc := newService()

	ran := false
	terminal := func(ctx context.Context, req *web.Request, res *web.Response) error {
		ran = true
		return nil
	}

	req := &web.Request{Headers: map[string]string{}}
	res := web.NewResponse()
	chain := middleware.Chain(nil, []middleware.Middleware{RequireAuth(svc, nil)}, terminal)
	if err := chain(context.Background(), req, res); err != nil {
		t.Fatalf("chain error: %v", err)
	}

	if ran {
		t.Error("handler ran without authentication")
	}
	if res.Status != http.StatusUnauthorized {
		t.Errorf("Status = %d, want 401", res.Status)
	}
}

func TestRequireAuthAttachesPrincipal(t *testing.T) {
	svc := newService()
	svc.Register("alice", "pw")
	token, _ := svc.Login("alice", "pw")

	var principal *web.Principal
	terminal := func(ctx context.Context, req *web.Request, res *web.Response) error {
		principal = req.Principal
		return nil
	}

	req := &web.Request{Headers: map[string]string{"Authorization": "Bearer " + token}}
	chain := middleware.Chain(nil, []middleware.Middleware{RequireAuth(svc, nil)}, terminal)
	if err := chain(context.Background(), req, web.NewResponse()); err != nil {
		t.Fatalf("chain error: %v", err)
	}

	if principal == nil || principal.Subject != "alice" {
		t.Errorf("Principal = %+v, want Subject alice", principal)
	}
}
