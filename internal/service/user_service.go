package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/sma-fee-tracker/internal/listing"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/export"
)

type userRepository interface {
	All(ctx context.Context, scope models.Scope) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
}

// UserService handles staff account management.
type UserService struct {
	repo      userRepository
	schools   schoolLookup
	list      *lister[models.User]
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, schools schoolLookup, deps ListingDeps, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{
		repo:      repo,
		schools:   schools,
		list:      newLister(ResourceUsers, listing.Users, listing.UserFields, repo.All, deps),
		cache:     deps.Cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns one page of staff accounts.
func (s *UserService) List(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts ListOptions) (*models.ListResult[models.User], error) {
	return s.list.list(ctx, scopeFor(actor), q, opts)
}

// ExportTable renders staff accounts as a table. Only superadmins may export staff.
func (s *UserService) ExportTable(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, columns []string) (export.Table, error) {
	if actor == nil || actor.Role != models.RoleSuperAdmin {
		return export.Table{}, appErrors.Clone(appErrors.ErrForbidden, "only superadmins can export users")
	}
	return s.list.table(ctx, scopeFor(actor), q, columns, "Users")
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user not found", "failed to load user")
	}
	return user, nil
}

// Create registers a new staff account.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid user payload")
	}
	schoolID, err := s.resolveSchool(ctx, req.Role, req.SchoolID)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}
	user := &models.User{
		SchoolID:     schoolID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Active:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, writeError(err, "user not found", "email already registered", "failed to create user")
	}
	s.invalidate(ctx)
	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update modifies a staff account. Deactivating an account ends its sessions.
func (s *UserService) Update(ctx context.Context, actorID, id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid user payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	active := boolOr(req.Active, user.Active)
	if id == actorID && (!active || req.Role != user.Role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate or demote your own account")
	}
	schoolID, err := s.resolveSchool(ctx, req.Role, req.SchoolID)
	if err != nil {
		return nil, err
	}
	wasActive := user.Active
	user.FullName = strings.TrimSpace(req.FullName)
	user.Role = req.Role
	user.SchoolID = schoolID
	user.Active = active
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, writeError(err, "user not found", "email already registered", "failed to update user")
	}
	if wasActive && !active {
		s.revokeSessions(ctx, id)
	}
	s.invalidate(ctx)
	return user, nil
}

// Delete deactivates a staff account.
func (s *UserService) Delete(ctx context.Context, actorID, id string) error {
	if id == actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete your own account")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "user not found", "failed to delete user")
	}
	s.revokeSessions(ctx, id)
	s.invalidate(ctx)
	return nil
}

// resolveSchool binds admins to an existing school; superadmins carry none.
func (s *UserService) resolveSchool(ctx context.Context, role models.UserRole, schoolID *string) (*string, error) {
	if role == models.RoleSuperAdmin {
		return nil, nil
	}
	if schoolID == nil || *schoolID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "school_id is required for admins")
	}
	if err := requireSchool(ctx, s.schools, nil, *schoolID); err != nil {
		return nil, err
	}
	id := *schoolID
	return &id, nil
}

func (s *UserService) revokeSessions(ctx context.Context, id string) {
	if err := s.repo.RevokeUserRefreshTokens(ctx, id); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", zap.String("user_id", id), zap.Error(err))
	}
}

func (s *UserService) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.cache, ResourceUsers)
}
