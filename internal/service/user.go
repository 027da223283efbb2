// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, the session
// authenticator, and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Transaction coordination
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/alamigestion/server/internal/auth"
	"github.com/alamigestion/server/internal/domain"
	"github.com/alamigestion/server/internal/metrics"
	"github.com/alamigestion/server/internal/repository"
	"github.com/google/uuid"
)

const (
	// MinPasswordLength follows NIST SP 800-63B's 8+ character minimum.
	MinPasswordLength = 8

	// MaxPasswordLength caps input before it reaches bcrypt, which only
	// consumes the first 72 bytes anyway.
	MaxPasswordLength = 72
)

// dummyHash is a bcrypt digest compared against when a login targets an
// unknown email, so the request costs the same as a real comparison and
// response timing does not reveal which emails exist.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// =============================================================================
// Interface Definition
// =============================================================================

// UserService defines the interface for account operations.
//
// There is no self-service signup: accounts are created by an owner.
type UserService interface {
	// Register creates a new account.
	// Returns domain.ECONFLICT if the email is already registered.
	// Returns domain.EINVALID for validation errors.
	Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error)

	// Login authenticates a user and issues a session token.
	// Returns domain.EUNAUTHORIZED for invalid credentials or a
	// deactivated account.
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)

	// GetByID retrieves a user by ID.
	// Returns domain.ENOTFOUND if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// List returns all accounts, oldest first.
	List(ctx context.Context) ([]*domain.User, error)

	// ChangePassword changes a user's password after verifying the
	// current one. Returns domain.EUNAUTHORIZED if the current password
	// is wrong.
	ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error

	// SetActive activates or deactivates an account. Outstanding session
	// tokens of a deactivated account stop working at the next request
	// because the per-request user lookup checks the flag.
	// Returns domain.EINVALID when an actor tries to deactivate
	// themselves.
	SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) error
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	queries *repository.Queries
	authn   *auth.Authenticator
	logger  *slog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(queries *repository.Queries, authn *auth.Authenticator, logger *slog.Logger) UserService {
	return &userService{
		queries: queries,
		authn:   authn,
		logger:  logger,
	}
}

var _ UserService = (*userService)(nil)

func (s *userService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	const op = "UserService.Register"

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.Name = strings.TrimSpace(params.Name)

	if err := validateEmail(params.Email); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid email address")
	}
	if params.Name == "" {
		return nil, domain.Invalid(op, "Name is required")
	}
	if !params.Role.Valid() {
		return nil, domain.Invalid(op, "Role must be OWNER or SELLER")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, domain.Wrap(err, domain.EINVALID, op, "Invalid password")
	}

	_, err := s.queries.GetUserByEmail(ctx, params.Email)
	if err == nil {
		// Hash anyway so duplicate and fresh registrations take the
		// same time.
		_, _ = s.authn.HashPassword(params.Password)
		return nil, domain.Conflict(op, "Email already registered")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, domain.Internal(err, op, "Failed to check email availability")
	}

	passwordHash, err := s.authn.HashPassword(params.Password)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	repoUser, err := s.queries.CreateUser(ctx, repository.CreateUserParams{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: passwordHash,
		Role:         string(params.Role),
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict(op, "Email already registered")
		}
		return nil, domain.Internal(err, op, "Failed to create user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email, "role", user.Role)

	return user, nil
}

// Login authenticates a user and issues a signed session token.
//
// The error message is identical for unknown email, wrong password, and
// deactivated account, so responses do not reveal which emails exist.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	const op = "UserService.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	repoUser, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = s.authn.VerifyPassword(password, dummyHash)
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
			return nil, domain.Unauthorized(op, "Invalid email or password")
		}
		return nil, domain.Internal(err, op, "Failed to look up user")
	}

	if err := s.authn.VerifyPassword(password, repoUser.PasswordHash); err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	if !repoUser.Active {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		s.logger.Warn("login attempt on deactivated account", "user_id", repoUser.ID)
		return nil, domain.Unauthorized(op, "Invalid email or password")
	}

	user := repoUserToDomain(repoUser)

	token, err := s.authn.CreateToken(user.ID.String(), user.Role)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to create session token")
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", "user_id", user.ID)

	user.PasswordHash = ""
	return &domain.LoginResult{User: user, Token: token}, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "User not found")
		}
		return nil, domain.Internal(err, op, "Failed to get user")
	}
	return repoUserToDomain(repoUser), nil
}

func (s *userService) List(ctx context.Context) ([]*domain.User, error) {
	const op = "UserService.List"

	repoUsers, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to list users")
	}

	users := make([]*domain.User, 0, len(repoUsers))
	for _, ru := range repoUsers {
		u := repoUserToDomain(ru)
		u.PasswordHash = ""
		users = append(users, u)
	}
	return users, nil
}

func (s *userService) ChangePassword(ctx context.Context, params domain.PasswordChangeParams) error {
	const op = "UserService.ChangePassword"

	if err := validatePassword(params.NewPassword); err != nil {
		return domain.Wrap(err, domain.EINVALID, op, "Invalid new password")
	}

	repoUser, err := s.queries.GetUserByID(ctx, params.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "User not found")
		}
		return domain.Internal(err, op, "Failed to get user")
	}

	if err := s.authn.VerifyPassword(params.CurrentPassword, repoUser.PasswordHash); err != nil {
		return domain.Unauthorized(op, "Current password is incorrect")
	}

	newHash, err := s.authn.HashPassword(params.NewPassword)
	if err != nil {
		return domain.Internal(err, op, "Failed to hash password")
	}

	if err := s.queries.UpdateUserPassword(ctx, repository.UpdateUserPasswordParams{
		ID:           params.UserID,
		PasswordHash: newHash,
	}); err != nil {
		return domain.Internal(err, op, "Failed to update password")
	}

	s.logger.Info("password changed", "user_id", params.UserID)
	return nil
}

func (s *userService) SetActive(ctx context.Context, actorID, userID uuid.UUID, active bool) error {
	const op = "UserService.SetActive"

	if actorID == userID && !active {
		return domain.Invalid(op, "You cannot deactivate your own account")
	}

	if _, err := s.queries.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NotFound(op, "User not found")
		}
		return domain.Internal(err, op, "Failed to get user")
	}

	if err := s.queries.SetUserActive(ctx, repository.SetUserActiveParams{
		ID:     userID,
		Active: active,
	}); err != nil {
		return domain.Internal(err, op, "Failed to update account status")
	}

	s.logger.Info("account status changed", "user_id", userID, "active", active, "actor_id", actorID)
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         domain.Role(u.Role),
		Active:       u.Active,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.New("email must contain a local part and a domain")
	}
	if !strings.Contains(email[at+1:], ".") {
		return errors.New("email domain is incomplete")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return errors.New("password must be at most 72 characters")
	}
	return nil
}

// isUniqueViolation detects a unique constraint error without importing the
// driver's error types into the business layer.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
