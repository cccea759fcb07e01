package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/villa-concierge/concierge-platform/internal/apperr"
	"github.com/villa-concierge/concierge-platform/internal/model"
	"github.com/villa-concierge/concierge-platform/internal/store"
	"github.com/villa-concierge/concierge-platform/pkg/logger"
)

const minPasswordLength = 8

var (
	errBadCredentials = apperr.E(apperr.KindAuth, "invalid email or password")
	errBadToken       = apperr.E(apperr.KindAuth, "invalid token")
)

// Claims are the claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
	Email string         `json:"email"`
	Role  model.UserRole `json:"role"`
}

// AuthOptions configures token issuance.
type AuthOptions struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// AuthService registers and authenticates users and issues token pairs.
type AuthService struct {
	users   store.Repository[model.User]
	refresh *RefreshStore
	opts    AuthOptions
	logger  *logger.Logger
	now     func() time.Time

	mu        sync.RWMutex
	providers map[model.AuthProvider]*OAuthProvider
}

// NewAuthService creates a new auth service.
func NewAuthService(users store.Repository[model.User], refresh *RefreshStore, opts AuthOptions, log *logger.Logger) *AuthService {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &AuthService{
		users:     users,
		refresh:   refresh,
		opts:      opts,
		logger:    log.Named("auth"),
		now:       time.Now,
		providers: make(map[model.AuthProvider]*OAuthProvider),
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Validation("invalid email address")
	}
	return email, nil
}

// Register creates a local account and signs it in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (*model.TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	if _, err := s.users.FindOne(ctx, store.Where(store.Eq("email", email))); err == nil {
		return nil, apperr.E(apperr.KindConflict, "email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	user := model.User{
		ID:           primitive.NewObjectID().Hex(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		AuthProvider: model.ProviderLocal,
		Role:         model.UserRoleUser,
		LastLogin:    now,
		CreatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.E(apperr.KindConflict, "email already registered")
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return s.issue(ctx, &user)
}

// Login checks a local account's password and signs it in.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (*model.TokenPair, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, errBadCredentials
	}
	user, err := s.users.FindOne(ctx, store.Where(store.Eq("email", email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if user.AuthProvider != model.ProviderLocal || user.PasswordHash == "" {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errBadCredentials
	}

	if err := s.touch(ctx, &user); err != nil {
		return nil, err
	}
	return s.issue(ctx, &user)
}

// Refresh rotates a refresh token: the presented token is consumed and a new
// pair is issued. A token can be redeemed once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	tokenID, secret, ok := splitRefreshToken(refreshToken)
	if !ok {
		return nil, errRefreshMissing
	}
	rec, err := s.refresh.Consume(ctx, tokenID, hashSecret(secret))
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindOne(ctx, store.Where(store.Eq("_id", rec.UserID)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errRefreshMissing
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return s.issue(ctx, &user)
}

// Logout revokes a refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperr.Validation("refresh token is required")
	}
	tokenID, _, ok := splitRefreshToken(refreshToken)
	if !ok {
		return nil
	}
	return s.refresh.Delete(ctx, tokenID)
}

// ValidateAccessToken verifies an access token and returns its claims.
func (s *AuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.opts.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, errBadToken
	}
	return claims, nil
}

// Me returns the account of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindOne(ctx, store.Where(store.Eq("_id", userID)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.E(apperr.KindNotFoundOrForbidden, "user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) touch(ctx context.Context, user *model.User) error {
	user.LastLogin = s.now().UTC().Truncate(time.Millisecond)
	if err := s.users.Update(ctx, store.Where(store.Eq("_id", user.ID)), *user); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// issue signs an access token and stores a new refresh token for user.
func (s *AuthService) issue(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	now := s.now()
	expiresAt := now.Add(s.opts.AccessTTL)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: user.Email,
		Role:  user.Role,
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	secret, err := randomSecret()
	if err != nil {
		return nil, err
	}
	tokenID := uuid.NewString()
	rec := model.RefreshToken{
		TokenID:   tokenID,
		UserID:    user.ID,
		ValueHash: hashSecret(secret),
		ExpiresAt: now.Add(s.opts.RefreshTTL),
	}
	if err := s.refresh.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  access,
		RefreshToken: tokenID + "." + secret,
		ExpiresAt:    expiresAt,
		User:         user,
	}, nil
}

func splitRefreshToken(token string) (id, secret string, ok bool) {
	id, secret, ok = strings.Cut(strings.TrimSpace(token), ".")
	if !ok || id == "" || secret == "" {
		return "", "", false
	}
	return id, secret, true
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
