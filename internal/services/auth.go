package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shamsacademy/academy-backend/internal/domain/user"
	"github.com/shamsacademy/academy-backend/internal/platform/ctxutil"
	"github.com/shamsacademy/academy-backend/internal/platform/logger"
)

// JWTClaims are the claims the identity provider puts in access tokens.
type JWTClaims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	Secret   string
	Issuer   string
	Audience string
	// Leeway tolerates clock skew between us and the issuer.
	Leeway time.Duration
	// AccessTTL is only used when minting tokens for tooling and tests.
	AccessTTL time.Duration
}

var ErrInvalidToken = errors.New("invalid or expired token")

type AuthService interface {
	// SetContextFromToken verifies the bearer token and attaches the
	// caller's identity. The user row is mirrored on the way.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// IssueToken mints a token for local tooling; production tokens come
	// from the identity provider.
	IssueToken(userID uuid.UUID, role, email, name string) (string, error)
}

type authService struct {
	log   *logger.Logger
	users UserService
	cfg   AuthConfig
	now   clock
}

func NewAuthService(baseLog *logger.Logger, users UserService, cfg AuthConfig) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	return &authService{
		log:   baseLog.With("service", "AuthService"),
		users: users,
		cfg:   cfg,
	}
}

func (as *authService) IssueToken(userID uuid.UUID, role, email, name string) (string, error) {
	if as.cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is not configured")
	}
	at := as.now.now()
	claims := JWTClaims{
		Role:  role,
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    as.cfg.Issuer,
			ExpiresAt: jwt.NewNumericDate(at.Add(as.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(at),
		},
	}
	if as.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{as.cfg.Audience}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.Secret))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return ctx, ErrInvalidToken
	}
	if as.cfg.Secret == "" {
		as.log.Error("JWT_SECRET is not configured; rejecting token")
		return ctx, ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(as.cfg.Leeway),
		jwt.WithTimeFunc(as.now.now),
	}
	if as.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.cfg.Issuer))
	}
	if as.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(as.cfg.Audience))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.Secret), nil
	}, opts...)
	if err != nil {
		as.log.Debug("token rejected", "error", err)
		return ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return ctx, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return ctx, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if !user.IsValidRole(role) {
		role = user.RoleStudent
	}
	id := &ctxutil.Identity{
		UserID: userID,
		Role:   role,
		Email:  strings.TrimSpace(claims.Email),
		Token:  tokenString,
	}
	if as.users != nil {
		if err := as.users.EnsureUser(ctx, id, claims.Name); err != nil {
			return ctx, err
		}
	}
	return ctxutil.WithIdentity(ctx, id), nil
}
