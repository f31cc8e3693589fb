// Package auth implements registration, login, profile lookup and the
// password reset flow on top of the credential store and token issuer.
package auth

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/mobcommerce-backend/internal/apperr"
	"github.com/wichananm65/mobcommerce-backend/internal/token"
	"github.com/wichananm65/mobcommerce-backend/internal/user"
)

const (
	MinPasswordLength = 6
	// MaxPasswordBytes is the bcrypt input limit.
	MaxPasswordBytes = 72
	MinAge            = 13
	MaxAge            = 120

	msgInvalidCredentials = "Invalid email or password"
	msgResetGeneric       = "If email exists, password reset instructions have been sent"
	msgResetInvalid       = "Invalid or expired reset token"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// dummyHash is compared against when the email is unknown so both login
// failures cost one bcrypt round.
var dummyHash = sync.OnceValue(func() string {
	h, _ := bcrypt.GenerateFromPassword([]byte("mobcommerce-dummy-password"), user.HashCost)
	return string(h)
})

func validatePassword(p string) error {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return apperr.Validation("Password must be at least 6 characters long")
	}
	if len(p) > MaxPasswordBytes {
		return apperr.Validation("Password must be at most 72 bytes long")
	}
	return nil
}

// Credentials is the credential store capability.
type Credentials interface {
	Create(ctx context.Context, p user.Profile) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id int64) (user.User, error)
	UpdatePassword(ctx context.Context, id int64, newPlain string) error
	ListAll(ctx context.Context) ([]user.User, error)
	CheckPassword(u user.User, plain string) bool
}

// TokenIssuer signs bearer tokens.
type TokenIssuer interface {
	Issue(userID int64, role string) (string, error)
}

type Options struct {
	ResetTokenTTL time.Duration
	// ExposeResetToken returns the raw reset token in the forgot-password
	// response. There is no mail delivery, so this is how clients get it.
	ExposeResetToken bool
	AdminEmails      []string
}

// Service holds the auth use cases.
type Service struct {
	creds  Credentials
	tokens TokenIssuer
	resets ResetRepository
	log    *zap.Logger
	opts   Options
	now    func() time.Time
}

func NewService(creds Credentials, tokens TokenIssuer, resets ResetRepository, log *zap.Logger, opts Options) *Service {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = time.Hour
	}
	return &Service{
		creds:  creds,
		tokens: tokens,
		resets: resets,
		log:    log,
		opts:   opts,
		now:    time.Now,
	}
}

type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Age       int    `json:"age"`
}

// Session is returned by register and login.
type Session struct {
	User  user.Public `json:"user"`
	Token string      `json:"token"`
}

type ForgotResult struct {
	Message    string `json:"message"`
	ResetToken string `json:"resetToken,omitempty"`
}

func (in RegisterInput) validate() error {
	if in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" || in.Age == 0 {
		return apperr.Validation("All fields are required")
	}
	if !emailPattern.MatchString(in.Email) {
		return apperr.Validation("Invalid email format")
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.Age < MinAge || in.Age > MaxAge {
		return apperr.Validation("Age must be between 13 and 120")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.validate(); err != nil {
		return Session{}, err
	}

	conflict := apperr.Conflict("User with this email already exists")
	if _, err := s.creds.FindByEmail(ctx, in.Email); err == nil {
		return Session{}, conflict
	} else if !errors.Is(err, user.ErrNotFound) {
		return Session{}, apperr.Internal("Server error during registration", err)
	}

	role := token.RoleUser
	if slices.Contains(s.opts.AdminEmails, user.NormalizeEmail(in.Email)) {
		role = token.RoleAdmin
	}

	created, err := s.creds.Create(ctx, user.Profile{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Password:  in.Password,
		Age:       in.Age,
		Role:      role,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailExists) {
			return Session{}, conflict
		}
		return Session{}, apperr.Internal("Server error during registration", err)
	}

	return s.session(created, "Server error during registration")
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, apperr.Validation("Email and password are required")
	}

	u, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.creds.CheckPassword(user.User{PasswordHash: dummyHash()}, password)
			return Session{}, apperr.Unauthorized(msgInvalidCredentials)
		}
		return Session{}, apperr.Internal("Server error during login", err)
	}
	if !s.creds.CheckPassword(u, password) {
		return Session{}, apperr.Unauthorized(msgInvalidCredentials)
	}

	return s.session(u, "Server error during login")
}

func (s *Service) session(u user.User, failMsg string) (Session, error) {
	signed, err := s.tokens.Issue(u.ID, u.Role)
	if err != nil {
		return Session{}, apperr.Internal(failMsg, err)
	}
	return Session{User: u.Public(), Token: signed}, nil
}

// GetProfile returns the caller's public fields including createdAt.
func (s *Service) GetProfile(ctx context.Context, caller token.Identity) (user.Public, error) {
	u, err := s.creds.FindByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.Public{}, apperr.NotFound("User not found")
		}
		return user.Public{}, apperr.Internal("Server error fetching profile", err)
	}
	return u.PublicWithCreated(), nil
}

// ForgotPassword answers with the same message whether or not the email
// exists. For existing accounts it persists a single-use reset grant.
func (s *Service) ForgotPassword(ctx context.Context, email string) (ForgotResult, error) {
	if strings.TrimSpace(email) == "" {
		return ForgotResult{}, apperr.Validation("Email is required")
	}

	result := ForgotResult{Message: msgResetGeneric}
	u, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return result, nil
		}
		return ForgotResult{}, apperr.Internal("Server error processing password reset", err)
	}

	raw, hash, err := newResetToken()
	if err != nil {
		return ForgotResult{}, apperr.Internal("Server error processing password reset", err)
	}
	grant := ResetToken{TokenHash: hash, UserID: u.ID, ExpiresAt: s.now().Add(s.opts.ResetTokenTTL)}
	if err := s.resets.Create(ctx, grant); err != nil {
		return ForgotResult{}, apperr.Internal("Server error processing password reset", err)
	}

	s.log.Info("password reset requested", zap.Int64("user_id", u.ID), zap.Time("expires_at", grant.ExpiresAt))
	if s.opts.ExposeResetToken {
		s.log.Debug("password reset token issued", zap.Int64("user_id", u.ID), zap.String("reset_token", raw))
		result.ResetToken = raw
	}
	return result, nil
}

// ResetPassword redeems a reset grant and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if rawToken == "" || newPassword == "" {
		return apperr.Validation("Token and password are required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	grant, err := s.resets.Consume(ctx, hashResetToken(rawToken), s.now())
	if err != nil {
		if errors.Is(err, ErrResetTokenNotFound) {
			return apperr.Validation(msgResetInvalid)
		}
		return apperr.Internal("Server error resetting password", err)
	}

	if err := s.creds.UpdatePassword(ctx, grant.UserID, newPassword); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperr.Validation(msgResetInvalid)
		}
		return apperr.Internal("Server error resetting password", err)
	}
	s.log.Info("password reset completed", zap.Int64("user_id", grant.UserID))
	return nil
}

// ListUsers returns every user newest first. Only admins may call it.
func (s *Service) ListUsers(ctx context.Context, caller token.Identity) ([]user.Public, error) {
	if !caller.IsAdmin() {
		return nil, apperr.Forbidden("Admin access required")
	}
	users, err := s.creds.ListAll(ctx)
	if err != nil {
		return nil, apperr.Internal("Server error fetching users", err)
	}
	out := make([]user.Public, 0, len(users))
	for _, u := range users {
		out = append(out, u.PublicWithCreated())
	}
	return out, nil
}
