package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fallousenghor/visit-backend/internal/model"
	"github.com/fallousenghor/visit-backend/internal/repository"
	"github.com/fallousenghor/visit-backend/prometheus"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher hashes with bcrypt at Cost.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using cost 10.
func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{Cost: 10}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(id, email, role string) (string, error)
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  model.PublicUser `json:"user"`
	Token string           `json:"token"`
}

// AuthService owns accounts and credentials.
type AuthService struct {
	users   repository.UserRepository
	hasher  PasswordHasher
	tokens  TokenIssuer
	metrics *prometheus.ServiceMetrics
	log     *zap.Logger
}

func NewAuthService(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer,
	metrics *prometheus.ServiceMetrics, log *zap.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, tokens: tokens, metrics: metrics, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a USER account. A taken email is a conflict and creates nothing.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	s.metrics.RegisterCounter.Inc()
	email := normalizeEmail(in.Email)

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, Internal("failed to register user", err)
	}
	if existing != nil {
		s.metrics.RecordAuthError("email_taken")
		return nil, Conflict("email", "a user with this email already exists")
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, Internal("failed to hash password", err)
	}

	user := &model.User{
		Email:     email,
		Password:  hashed,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Role:      model.RoleUser,
		IsActive:  true,
	}

	defer s.metrics.TrackDBOperation("user_create")(time.Now())
	if err := s.users.Create(ctx, user); err != nil {
		var uv *repository.UniqueViolation
		if errors.As(err, &uv) {
			s.metrics.RecordAuthError("email_taken")
			return nil, Conflict("email", "a user with this email already exists")
		}
		return nil, Internal("failed to register user", err)
	}

	token, err := s.tokens.GenerateToken(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		s.metrics.RecordAuthError("token_generation_failed")
		return nil, Internal("failed to issue token", err)
	}

	s.log.Info("User registered", zap.String("user_id", user.ID.String()), zap.String("email", user.Email))
	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Login checks, in order: the account exists, it is active, the password matches.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	s.metrics.LoginCounter.Inc()

	defer s.metrics.TrackDBOperation("user_query")(time.Now())
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		s.metrics.RecordAuthError("user_not_found")
		return nil, Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, Internal("failed to log in", err)
	}

	if !user.IsActive {
		s.metrics.RecordAuthError("account_inactive")
		return nil, Forbidden("account is deactivated")
	}

	if err := s.hasher.Compare(user.Password, password); err != nil {
		s.metrics.RecordAuthError("invalid_password")
		return nil, Unauthorized("invalid email or password")
	}

	token, err := s.tokens.GenerateToken(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		s.metrics.RecordAuthError("token_generation_failed")
		return nil, Internal("failed to issue token", err)
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return &AuthResult{User: user.Public(), Token: token}, nil
}

// Profile returns the account behind a token.
func (s *AuthService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NotFound("user not found")
	}
	if err != nil {
		return nil, Internal("failed to load profile", err)
	}
	return user, nil
}

// ProfileUpdate carries the editable profile fields; nil leaves a field unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if in.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if len(fields) > 0 {
		err := s.users.Update(ctx, id, fields)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NotFound("user not found")
		}
		if err != nil {
			return nil, Internal("failed to update profile", err)
		}
	}
	return s.Profile(ctx, id)
}

// ChangePassword replaces the password once the current one verifies.
func (s *AuthService) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return err
	}
	if err := s.hasher.Compare(user.Password, current); err != nil {
		s.metrics.RecordAuthError("invalid_password")
		return Unauthorized("current password is incorrect")
	}

	hashed, err := s.hasher.Hash(next)
	if err != nil {
		return Internal("failed to hash password", err)
	}
	if err := s.users.Update(ctx, id, map[string]interface{}{"password": hashed}); err != nil {
		return Internal("failed to change password", err)
	}
	s.log.Info("Password changed", zap.String("user_id", id.String()))
	return nil
}

// EnsureAccount creates or resets an operator account; used by the seed and reset-admin commands.
func (s *AuthService) EnsureAccount(ctx context.Context, in RegisterInput, role model.Role) (*model.User, bool, error) {
	email := normalizeEmail(in.Email)
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user := &model.User{
			Email:     email,
			Password:  hashed,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Role:      role,
			IsActive:  true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, false, err
		}
		return user, true, nil
	case err != nil:
		return nil, false, err
	}

	err = s.users.Update(ctx, existing.ID, map[string]interface{}{
		"password":  hashed,
		"role":      role,
		"is_active": true,
	})
	if err != nil {
		return nil, false, err
	}
	user, err := s.users.GetByID(ctx, existing.ID)
	return user, false, err
}
