package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/diewo77/invoice-api/auth"
	"github.com/diewo77/invoice-api/internal/domain"
	"github.com/diewo77/invoice-api/internal/mail"
	"github.com/diewo77/invoice-api/internal/models"
	"github.com/diewo77/invoice-api/internal/store"
	"github.com/diewo77/invoice-api/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// DefaultFrontendURL is used for reset links when neither FRONTEND_URL nor an Origin header is known.
const DefaultFrontendURL = "http://localhost:5173"

// Session is returned by register and login.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type RegisterInput struct {
	Email          string                `json:"email"`
	Password       string                `json:"password"`
	CompanyProfile models.CompanyProfile `json:"companyProfile"`
}

// AuthService handles accounts, sessions and password resets.
type AuthService struct {
	store       store.Store
	tokens      *auth.JWTManager
	mailer      mail.Sender
	frontendURL string
	resetTTL    time.Duration
	log         zerolog.Logger
	now         func() time.Time
}

func NewAuthService(st store.Store, tokens *auth.JWTManager, mailer mail.Sender, frontendURL string, resetTTL time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:       st,
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		resetTTL:    resetTTL,
		log:         log,
		now:         time.Now,
	}
}

// SetClock replaces the time source used for reset token expiry.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := models.NormalizeEmail(in.Email)
	v := validation.Violations{}
	validation.Required("email", email, v)
	validation.Email("email", email, v)
	validation.Required("password", in.Password, v)
	if err := domain.Validate(v); err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, domain.E(domain.ErrAlreadyExists, "User already exists")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{Email: email, Password: hash, CompanyProfile: in.CompanyProfile}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.E(domain.ErrAlreadyExists, "User already exists")
		}
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("user registered")
	return s.session(user)
}

// Login never tells an unknown e-mail apart from a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	invalid := domain.E(domain.ErrInvalidCredentials, "Invalid credentials")
	user, err := s.store.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, invalid
	}
	return s.session(user)
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// RequestPasswordReset stores a fresh token digest and mails the raw token.
// origin is the caller's Origin header, used when no frontend URL is configured.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, origin string) error {
	user, err := s.store.GetUserByEmail(ctx, models.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return domain.E(domain.ErrNotFound, "User not found")
	}
	if err != nil {
		return err
	}

	raw, hash, err := auth.NewOpaqueToken()
	if err != nil {
		return err
	}
	expiry := s.now().Add(s.resetTTL)
	user.ResetTokenHash = &hash
	user.ResetTokenExpiry = &expiry
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}

	link := s.resetURL(origin, raw)
	msg, err := mail.PasswordReset(user.Email, link, humanDuration(s.resetTTL))
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send reset email, please check your SMTP settings: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Time("expires", expiry).Msg("password reset requested")
	return nil
}

func (s *AuthService) resetURL(origin, token string) string {
	base := s.frontendURL
	if base == "" {
		base = strings.TrimRight(origin, "/")
	}
	if base == "" {
		base = DefaultFrontendURL
	}
	return base + "/reset-password?token=" + url.QueryEscape(token)
}

// CompletePasswordReset sets a new password when token matches an unexpired
// digest. The token is cleared so it works once.
func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	invalid := domain.E(domain.ErrInvalidResetToken, "Token is invalid or has expired")
	if strings.TrimSpace(token) == "" {
		return invalid
	}
	v := validation.Violations{}
	validation.Required("password", newPassword, v)
	if err := domain.Validate(v); err != nil {
		return err
	}

	user, err := s.store.GetUserByResetToken(ctx, auth.HashToken(token))
	if errors.Is(err, domain.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if user.ResetTokenExpiry == nil || !s.now().Before(*user.ResetTokenExpiry) {
		return invalid
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.Password = hash
	user.ClearResetToken()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return err
	}
	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.E(domain.ErrNotFound, "User not found")
	}
	return user, err
}

// UpdateProfile replaces the caller's company profile and nothing else.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, profile models.CompanyProfile) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	v := validation.Violations{}
	validation.Email("companyProfile.email", profile.Email, v)
	if err := domain.Validate(v); err != nil {
		return nil, err
	}
	user.CompanyProfile = profile
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UserExists backs auth.SetUserVerifier so tokens of deleted users stop working.
func (s *AuthService) UserExists(ctx context.Context, userID string) bool {
	_, err := s.store.GetUser(ctx, userID)
	return err == nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
	return d.String()
}
