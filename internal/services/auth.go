package services

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/taskdeck-dev/taskdeck/internal/apperrors"
	"github.com/taskdeck-dev/taskdeck/internal/metrics"
	"github.com/taskdeck-dev/taskdeck/internal/models"
	"github.com/taskdeck-dev/taskdeck/internal/permissions"
	"github.com/taskdeck-dev/taskdeck/internal/types"
)

// invalidCredentials is shared by the unknown-email and wrong-password paths
// so callers cannot tell which check failed.
const invalidCredentials = "Invalid email or password"

type AuthService struct {
	db         *gorm.DB
	logger     *zap.Logger
	metrics    *metrics.Metrics
	validate   *validator.Validate
	bcryptCost int
}

func NewAuthService(db *gorm.DB, logger *zap.Logger, m *metrics.Metrics, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = 12
	}
	return &AuthService{
		db:         db,
		logger:     logger,
		metrics:    m,
		validate:   validator.New(),
		bcryptCost: bcryptCost,
	}
}

type RegisterCommand struct {
	Name     string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. The email is stored normalized; the first
// registered user is promoted to the global ADMIN role by db.EnsureSystemAdmin.
func (s *AuthService) Register(ctx context.Context, cmd RegisterCommand) (*models.User, error) {
	cmd.Email = NormalizeEmail(cmd.Email)

	if err := s.validate.Struct(cmd); err != nil {
		return nil, apperrors.Validation("Invalid registration request", fieldErrors(err)...)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := models.User{
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: string(passwordHash),
		Role:         types.RoleUser,
	}

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.Conflict("Email already exists")
		}
		return nil, apperrors.Internal("failed to create user", err)
	}

	s.metrics.RecordAuthSuccess()
	s.logger.Info("user registered", zap.Uint("user_id", user.ID))

	return &user, nil
}

// Authenticate checks the credentials and returns the user. Unknown email and
// wrong password produce the identical error.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = NormalizeEmail(email)

	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperrors.Validation("Email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.metrics.RecordAuthFailure()
			return nil, apperrors.Unauthorized(invalidCredentials)
		}
		return nil, apperrors.Internal("failed to fetch user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.metrics.RecordAuthFailure()
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	s.metrics.RecordAuthSuccess()
	s.logger.Info("user authenticated", zap.Uint("user_id", user.ID))

	return &user, nil
}

// FindUserByID loads a user for session resolution.
func (s *AuthService) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("failed to fetch user", err)
	}
	return &user, nil
}

// ListUsers returns every user. System admins only.
func (s *AuthService) ListUsers(ctx context.Context, requester *models.User) ([]models.User, error) {
	if !permissions.IsSystemAdmin(requester) {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("User must be a system admin")
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Order("id asc").Find(&users).Error; err != nil {
		return nil, apperrors.Internal("failed to list users", err)
	}

	return users, nil
}

// UpdateUserRole changes a user's global role. System admins only; an admin
// cannot demote themselves, which keeps at least one admin around.
func (s *AuthService) UpdateUserRole(ctx context.Context, requester *models.User, targetID uint, role string) (*models.User, error) {
	if !permissions.IsSystemAdmin(requester) {
		s.metrics.RecordPermissionDenied()
		return nil, apperrors.Forbidden("User must be a system admin")
	}

	if !types.ValidRole(role) {
		return nil, apperrors.Validation("Role must be ADMIN or USER")
	}

	if requester.ID == targetID {
		return nil, apperrors.Forbidden("Cannot change own system role")
	}

	var target models.User
	if err := s.db.WithContext(ctx).First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, apperrors.Internal("failed to fetch user", err)
	}

	if err := s.db.WithContext(ctx).Model(&target).Update("role", role).Error; err != nil {
		return nil, apperrors.Internal("failed to update user role", err)
	}

	s.logger.Info("user role updated",
		zap.Uint("user_id", target.ID),
		zap.String("role", role),
		zap.Uint("updated_by", requester.ID))

	return &target, nil
}

// fieldErrors converts validator failures into the taxonomy's field errors.
func fieldErrors(err error) []apperrors.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := make([]apperrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "email":
			msg = "must be a valid email address"
		case "min":
			msg = "must be at least " + fe.Param() + " characters"
		default:
			msg = "is invalid"
		}
		fields = append(fields, apperrors.FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: msg,
		})
	}

	return fields
}
