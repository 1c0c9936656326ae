package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mattkerbyy/bubbly/backend/internal/auth"
	"github.com/mattkerbyy/bubbly/backend/internal/models"
	"github.com/mattkerbyy/bubbly/backend/internal/repositories"
	"github.com/mattkerbyy/bubbly/backend/pkg/firebase"
	"github.com/mattkerbyy/bubbly/backend/pkg/logger"
)

const (
	resetTokenTTL          = time.Hour
	invalidCredentials     = "Invalid email or password"
	ForgotPasswordResponse = "If an account with that email exists, a reset link has been sent"
)

// IdentityVerifier checks a federated ID token.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebase.Identity, error)
}

type AuthService struct {
	users     repositories.UserRepository
	tokens    *auth.TokenManager
	verifier  IdentityVerifier
	mailer    Mailer
	clientURL string
	now       func() time.Time
}

func NewAuthService(users repositories.UserRepository, tokens *auth.TokenManager, verifier IdentityVerifier, mailer Mailer, clientURL string) *AuthService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		verifier:  verifier,
		mailer:    mailer,
		clientURL: strings.TrimRight(clientURL, "/"),
		now:       time.Now,
	}
}

func (s *AuthService) issue(user *models.User) (*models.AuthResponse, error) {
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, conflict("Email already registered")
	} else if !isNotFound(err) {
		return nil, err
	}
	if _, err := s.users.GetUserByUsername(ctx, req.Username); err == nil {
		return nil, conflict("Username already taken")
	} else if !isNotFound(err) {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Username: req.Username,
		Email:    email,
		Password: hashed,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if isDuplicate(err) {
			return nil, conflict("Email or username already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.issue(user)
}

// Signin answers unknown email and wrong password with the same 401.
func (s *AuthService) Signin(ctx context.Context, req models.SigninRequest) (*models.AuthResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(req.Email))
	if isNotFound(err) {
		return nil, newError(ErrUnauthorized, invalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, newError(ErrUnauthorized, invalidCredentials)
	}
	return s.issue(user)
}

// FirebaseLogin exchanges a Firebase ID token for a local token, linking or
// creating the local account on first use.
func (s *AuthService) FirebaseLogin(ctx context.Context, idToken string) (*models.AuthResponse, error) {
	if s.verifier == nil {
		return nil, newError(ErrUnavailable, "Firebase login is not configured")
	}
	identity, err := s.verifier.VerifyIDToken(ctx, idToken)
	if errors.Is(err, firebase.ErrNotConfigured) {
		return nil, newError(ErrUnavailable, "Firebase login is not configured")
	}
	if err != nil {
		logger.Debug("firebase token rejected", zap.Error(err))
		return nil, newError(ErrUnauthorized, "Invalid Firebase ID token")
	}

	user, err := s.users.GetUserByFirebaseUID(ctx, identity.UID)
	if err == nil {
		return s.issue(user)
	}
	if !isNotFound(err) {
		return nil, err
	}
	if identity.Email == "" {
		return nil, validationError("Firebase account has no email address")
	}

	uid := identity.UID
	user, err = s.users.GetUserByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		user.FirebaseUID = &uid
		if err := s.users.UpdateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("link firebase account: %w", err)
		}
	case isNotFound(err):
		username, err := s.availableUsername(ctx, identity.Email)
		if err != nil {
			return nil, err
		}
		name := identity.Name
		if name == "" {
			name = username
		}
		user = &models.User{
			Name:        name,
			Username:    username,
			Email:       strings.ToLower(identity.Email),
			FirebaseUID: &uid,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("create firebase user: %w", err)
		}
	default:
		return nil, err
	}
	return s.issue(user)
}

// availableUsername derives a username from the email's local part and adds
// a short random suffix when it is taken.
func (s *AuthService) availableUsername(ctx context.Context, email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")
	base := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToLower(r)
		}
		return -1
	}, local)
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 0; i < 5; i++ {
		_, err := s.users.GetUserByUsername(ctx, candidate)
		if isNotFound(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = base + strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	}
	return "", conflict("Could not allocate a username")
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ForgotPassword never reveals whether the email is registered.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}

	token := uuid.NewString()
	hash := hashResetToken(token)
	expires := s.now().Add(resetTokenTTL)
	user.ResetTokenHash = &hash
	user.ResetTokenExpiresAt = &expires
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	link := s.clientURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, user.Email, link); err != nil {
		logger.Error("failed to send password reset", zap.Uint("user_id", user.ID), zap.Error(err))
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	invalid := validationError("Invalid or expired reset token")

	user, err := s.users.GetUserByResetTokenHash(ctx, hashResetToken(req.Token))
	if isNotFound(err) {
		return invalid
	}
	if err != nil {
		return err
	}
	if user.ResetTokenExpiresAt == nil || !s.now().Before(*user.ResetTokenExpiresAt) {
		return invalid
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	user.Password = hashed
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil
	if err := s.users.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return nil
}
