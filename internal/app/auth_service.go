package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"quiz-session-service/internal/domain"
)

const tokenIssuer = "quiz-session-service"

// Claims is the JWT payload. Subject carries the user ID.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthService registers users and issues/validates bearer tokens.
type AuthService struct {
	users  UserStore
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
}

func NewAuthService(users UserStore, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{
		users:  users,
		secret: []byte(secret),
		ttl:    ttl,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
}

// SetClock is test-only for deterministic token expiry.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

// Register creates a regular user account.
func (s *AuthService) Register(ctx context.Context, username, password string) (domain.User, error) {
	return s.create(ctx, username, password, domain.RoleUser)
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return "", domain.User{}, err
	}
	return token, user, nil
}

// IssueToken signs an HS256 token for user.
func (s *AuthService) IssueToken(user domain.User) (string, error) {
	now := s.now()
	claims := &Claims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate validates a token and reloads its user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (domain.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithIssuer(tokenIssuer))
	if err != nil || !token.Valid {
		return domain.User{}, domain.ErrUnauthorized
	}
	user, err := s.users.GetUser(ctx, claims.Subject)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// EnsureAdmin creates the admin account if it does not exist yet.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (domain.User, bool, error) {
	existing, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, false, err
	}
	user, err := s.create(ctx, username, password, domain.RoleAdmin)
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}

// ListUsers returns every account; admins only.
func (s *AuthService) ListUsers(ctx context.Context, caller domain.User) ([]domain.User, error) {
	if !caller.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return s.users.ListUsers(ctx)
}

func (s *AuthService) create(ctx context.Context, username, password string, role domain.Role) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.NewValidationError("username", "is required")
	}
	if password == "" {
		return domain.User{}, domain.NewValidationError("password", "is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
