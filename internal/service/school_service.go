package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/listing"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/export"
)

type schoolRepository interface {
	All(ctx context.Context, scope models.Scope) ([]models.School, error)
	FindByID(ctx context.Context, id string) (*models.School, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	Deactivate(ctx context.Context, id string) error
}

// SchoolService manages schools.
type SchoolService struct {
	repo      schoolRepository
	list      *lister[models.School]
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSchoolService constructs the school service.
func NewSchoolService(repo schoolRepository, deps ListingDeps, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchoolService{
		repo:      repo,
		list:      newLister(ResourceSchools, listing.Schools, listing.SchoolFields, repo.All, deps),
		cache:     deps.Cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns one page of the schools visible to actor.
func (s *SchoolService) List(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts ListOptions) (*models.ListResult[models.School], error) {
	return s.list.list(ctx, scopeFor(actor), q, opts)
}

// ExportTable renders the schools visible to actor as a table.
func (s *SchoolService) ExportTable(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, columns []string) (export.Table, error) {
	return s.list.table(ctx, scopeFor(actor), q, columns, "Schools")
}

// Get returns a school by ID.
func (s *SchoolService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "school not found", "failed to load school")
	}
	if !canAccessSchool(actor, school.ID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "school not found")
	}
	return school, nil
}

// Create registers a school.
func (s *SchoolService) Create(ctx context.Context, req models.SchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school payload")
	}
	school := &models.School{
		Code:    strings.ToUpper(req.Code),
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Active:  boolOr(req.Active, true),
	}
	if err := s.repo.Create(ctx, school); err != nil {
		return nil, writeError(err, "school not found", "school code already used", "failed to create school")
	}
	s.invalidate(ctx)
	s.logger.Info("school created", zap.String("school_id", school.ID), zap.String("code", school.Code))
	return school, nil
}

// Update modifies a school.
func (s *SchoolService) Update(ctx context.Context, id string, req models.SchoolRequest) (*models.School, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school payload")
	}
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "school not found", "failed to load school")
	}
	school.Code = strings.ToUpper(req.Code)
	school.Name = req.Name
	school.Address = req.Address
	school.Phone = req.Phone
	school.Email = req.Email
	school.Active = boolOr(req.Active, school.Active)
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, writeError(err, "school not found", "school code already used", "failed to update school")
	}
	s.invalidate(ctx)
	return school, nil
}

// Delete deactivates a school.
func (s *SchoolService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "school not found", "failed to delete school")
	}
	s.invalidate(ctx)
	return nil
}

// School names are denormalised into every joined listing.
func (s *SchoolService) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.cache, ResourceSchools, ResourceStudents, ResourcePaymentPeriods, ResourcePayments)
}
