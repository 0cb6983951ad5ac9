package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pmn-helpdesk/backend/internal/config"
	"github.com/pmn-helpdesk/backend/internal/db"
	"github.com/pmn-helpdesk/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrMisconfigured = errors.New("auth config invalid")
)

type authClaims struct {
	LoginID string `json:"loginId"`
	jwt.RegisteredClaims
}

// adminUserRepo - DB 인터페이스
type adminUserRepo interface {
	GetAdminUserByLoginID(ctx context.Context, loginID string) (*db.AdminUser, error)
	UpsertAdminUser(ctx context.Context, loginID, passwordHash string) error
}

// AuthService issues and verifies access tokens for the admin API.
type AuthService struct {
	repo      adminUserRepo
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(repo adminUserRepo, cfg config.AuthConfig) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}

	accessTTL, err := time.ParseDuration(cfg.JWTAccessTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JWT_ACCESS_TTL", ErrMisconfigured)
	}

	return &AuthService{
		repo:      repo,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: accessTTL,
	}, nil
}

// EnsureAdmin seeds (or refreshes) the admin account from the environment.
func (s *AuthService) EnsureAdmin(ctx context.Context, loginID, password string) error {
	if loginID == "" || password == "" {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	return s.repo.UpsertAdminUser(ctx, loginID, string(hash))
}

func (s *AuthService) Login(ctx context.Context, loginID, password string) (string, error) {
	user, err := s.repo.GetAdminUserByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, db.ErrAdminUserNotFound) {
			return "", ErrUnauthorized
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", ErrUnauthorized
	}

	now := time.Now()
	claims := authClaims{
		LoginID: user.LoginID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

func (s *AuthService) ParseAccessToken(tokenString string) (*model.AuthUser, error) {
	var claims authClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}

	return &model.AuthUser{UserID: userID, LoginID: claims.LoginID}, nil
}
