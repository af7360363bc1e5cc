package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/atmosai/atmosai/internal/domain/profile"
	apperrors "github.com/atmosai/atmosai/pkg/errors"
)

// Service exposes authentication workflows.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (UserView, error)
	Login(ctx context.Context, req LoginRequest) (Session, error)
	GoogleAuthURL(ctx context.Context, state, codeChallenge string) (string, error)
	GoogleCallback(ctx context.Context, code, codeVerifier string) (Session, error)
	ValidateSession(ctx context.Context, token string) (Claims, error)
	Logout(ctx context.Context, claims Claims) error
	Me(ctx context.Context, userID int64) (UserView, error)
}

type service struct {
	cfg      Config
	repo     Repository
	sessions SessionStore
	profiles profile.Service
	logger   *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, repo Repository, sessions SessionStore, profiles profile.Service, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		repo:     repo,
		sessions: sessions,
		profiles: profiles,
		logger:   logger.With("component", "auth.service"),
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (UserView, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	name, err := normalizeName(req.Name)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	if err := validatePassword(req.Password); err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, err.Error(), nil)
	}
	_, exists, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInternal, "failed to check user", err)
	}
	if exists {
		return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "email already registered", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInternal, "failed to hash password", err)
	}
	user, err := s.repo.Create(ctx, email, name, string(hashed))
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return UserView{}, apperrors.Wrap(apperrors.CodeInvalidInput, "email already registered", err)
		}
		return UserView{}, apperrors.Wrap(apperrors.CodeInternal, "failed to create user", err)
	}
	s.seedProfile(ctx, user.ID)
	return toView(user), nil
}

// seedProfile creates the empty profile row every account starts with.
// Profile writes require an existing row, so a new account gets one here.
func (s *service) seedProfile(ctx context.Context, userID int64) {
	if err := s.profiles.EnsureDefault(ctx, userID); err != nil {
		s.logger.Error("failed to create default profile", "error", err, "userId", userID)
	}
}

func (s *service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidInput, "invalid email address", err)
	}
	if strings.TrimSpace(req.Password) == "" {
		return Session{}, apperrors.Wrap(apperrors.CodeInvalidInput, "password cannot be empty", nil)
	}
	user, found, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "failed to fetch user", err)
	}
	if !found {
		return Session{}, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid email or password", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid email or password", nil)
	}
	return s.startSession(ctx, user)
}

// ValidateSession checks the token signature and that the session has not
// been revoked by logout.
func (s *service) ValidateSession(ctx context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "session missing", nil)
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return Claims{}, err
	}
	userID, alive, err := s.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeInternal, "failed to check session", err)
	}
	if !alive || userID != claims.UserID {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "session revoked", nil)
	}
	return claims, nil
}

func (s *service) Logout(ctx context.Context, claims Claims) error {
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "failed to revoke session", err)
	}
	s.revokeGoogleRefreshToken(ctx, claims.UserID)
	return nil
}

func (s *service) Me(ctx context.Context, userID int64) (UserView, error) {
	user, found, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return UserView{}, apperrors.Wrap(apperrors.CodeInternal, "failed to load user", err)
	}
	if !found {
		return UserView{}, apperrors.Wrap(apperrors.CodeNotFound, "user not found", nil)
	}
	return toView(user), nil
}

func (s *service) startSession(ctx context.Context, user User) (Session, error) {
	sessionID := uuid.NewString()
	now := time.Now()
	expiresAt := now.Add(s.cfg.SessionTTL)

	claims := tokenClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "failed to sign session token", err)
	}
	if err := s.sessions.Save(ctx, sessionID, user.ID, s.cfg.SessionTTL); err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "failed to record session", err)
	}
	return Session{
		Token:     signed,
		ExpiresAt: expiresAt,
		User:      toView(user),
	}, nil
}

func (s *service) parseToken(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "session validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "session invalid", nil)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Time.Before(time.Now()) {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "session expired", nil)
	}
	if claims.ID == "" {
		return Claims{}, apperrors.Wrap(apperrors.CodeUnauthorized, "session missing id", nil)
	}
	return Claims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func toView(user User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", err
	}
	return email, nil
}

func normalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", errors.New("name cannot be empty")
	}
	if len([]rune(name)) > 50 {
		return "", errors.New("name cannot exceed 50 characters")
	}
	return name, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}
