package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pmn-helpdesk/backend/internal/config"
	"github.com/pmn-helpdesk/backend/internal/db"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdminRepo struct {
	users map[string]*db.AdminUser
}

func (f *fakeAdminRepo) GetAdminUserByLoginID(_ context.Context, loginID string) (*db.AdminUser, error) {
	if u, ok := f.users[loginID]; ok {
		return u, nil
	}
	return nil, db.ErrAdminUserNotFound
}

func (f *fakeAdminRepo) UpsertAdminUser(_ context.Context, loginID, passwordHash string) error {
	if f.users == nil {
		f.users = make(map[string]*db.AdminUser)
	}
	f.users[loginID] = &db.AdminUser{ID: int64(len(f.users) + 1), LoginID: loginID, PasswordHash: passwordHash}
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeAdminRepo) {
	t.Helper()
	repo := &fakeAdminRepo{}
	svc, err := NewAuthService(repo, config.AuthConfig{JWTSecret: "test-secret", JWTAccessTTL: "1h"})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc, repo
}

func TestNewAuthServiceValidation(t *testing.T) {
	if _, err := NewAuthService(&fakeAdminRepo{}, config.AuthConfig{JWTSecret: "", JWTAccessTTL: "1h"}); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("missing secret should be rejected, got %v", err)
	}
	if _, err := NewAuthService(&fakeAdminRepo{}, config.AuthConfig{JWTSecret: "s", JWTAccessTTL: "soon"}); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("bad TTL should be rejected, got %v", err)
	}
}

func TestLoginAndParseAccessToken(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	if err := svc.EnsureAdmin(ctx, "admin", "s3cret"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	token, err := svc.Login(ctx, "admin", "s3cret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	user, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if user.LoginID != "admin" || user.UserID != 1 {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, repo := newAuthFixture(t)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	repo.users = map[string]*db.AdminUser{"admin": {ID: 1, LoginID: "admin", PasswordHash: string(hash)}}

	if _, err := svc.Login(ctx, "admin", "wrong"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "right"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unknown user: got %v", err)
	}
}

func TestParseAccessTokenRejectsForgery(t *testing.T) {
	svc, _ := newAuthFixture(t)
	other, _ := newAuthFixture(t)
	ctx := context.Background()

	if err := other.EnsureAdmin(ctx, "admin", "pw"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	// Token signed with a different secret must not verify.
	foreign, err := other.Login(ctx, "admin", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	other.jwtSecret = []byte("rotated")

	if _, err := other.ParseAccessToken(foreign); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("rotated secret should invalidate token, got %v", err)
	}
	if _, err := svc.ParseAccessToken("not.a.token"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("garbage token: got %v", err)
	}
}
