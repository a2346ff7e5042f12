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

type paymentPeriodRepository interface {
	All(ctx context.Context, scope models.Scope) ([]models.PaymentPeriodDetail, error)
	FindByID(ctx context.Context, id string) (*models.PaymentPeriodDetail, error)
	Create(ctx context.Context, period *models.PaymentPeriod) error
	Update(ctx context.Context, period *models.PaymentPeriod) error
	Deactivate(ctx context.Context, id string) error
}

// PaymentPeriodService manages billing periods.
type PaymentPeriodService struct {
	repo      paymentPeriodRepository
	schools   schoolLookup
	list      *lister[models.PaymentPeriodDetail]
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentPeriodService constructs the payment period service.
func NewPaymentPeriodService(repo paymentPeriodRepository, schools schoolLookup, deps ListingDeps, validate *validator.Validate, logger *zap.Logger) *PaymentPeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentPeriodService{
		repo:      repo,
		schools:   schools,
		list:      newLister(ResourcePaymentPeriods, listing.PaymentPeriods, listing.PaymentPeriodFields, repo.All, deps),
		cache:     deps.Cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns one page of payment periods visible to actor.
func (s *PaymentPeriodService) List(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts ListOptions) (*models.ListResult[models.PaymentPeriodDetail], error) {
	return s.list.list(ctx, scopeFor(actor), q, opts)
}

// ExportTable renders the payment periods visible to actor as a table.
func (s *PaymentPeriodService) ExportTable(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, columns []string) (export.Table, error) {
	return s.list.table(ctx, scopeFor(actor), q, columns, "Payment periods")
}

// Get returns a payment period by ID.
func (s *PaymentPeriodService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.PaymentPeriodDetail, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "payment period not found", "failed to load payment period")
	}
	if !canAccessSchool(actor, period.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment period not found")
	}
	return period, nil
}

// Create opens a payment period.
func (s *PaymentPeriodService) Create(ctx context.Context, actor *models.JWTClaims, req models.PaymentPeriodRequest) (*models.PaymentPeriodDetail, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	if err := requireSchool(ctx, s.schools, actor, req.SchoolID); err != nil {
		return nil, err
	}
	period := &models.PaymentPeriod{
		SchoolID: req.SchoolID,
		Name:     strings.TrimSpace(req.Name),
		StartsOn: req.StartsOn,
		EndsOn:   req.EndsOn,
		DueOn:    req.DueOn,
		Amount:   req.Amount,
		Active:   boolOr(req.Active, true),
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, writeError(err, "payment period not found", "payment period name already used", "failed to create payment period")
	}
	s.invalidate(ctx)
	return s.reload(ctx, period.ID)
}

// Update modifies a payment period.
func (s *PaymentPeriodService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.PaymentPeriodRequest) (*models.PaymentPeriodDetail, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.SchoolID != current.SchoolID {
		if err := requireSchool(ctx, s.schools, actor, req.SchoolID); err != nil {
			return nil, err
		}
	}
	period := current.PaymentPeriod
	period.SchoolID = req.SchoolID
	period.Name = strings.TrimSpace(req.Name)
	period.StartsOn = req.StartsOn
	period.EndsOn = req.EndsOn
	period.DueOn = req.DueOn
	period.Amount = req.Amount
	period.Active = boolOr(req.Active, period.Active)
	if err := s.repo.Update(ctx, &period); err != nil {
		return nil, writeError(err, "payment period not found", "payment period name already used", "failed to update payment period")
	}
	s.invalidate(ctx)
	return s.reload(ctx, id)
}

// Delete closes a payment period.
func (s *PaymentPeriodService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "payment period not found", "failed to delete payment period")
	}
	s.invalidate(ctx)
	return nil
}

func (s *PaymentPeriodService) validate(req models.PaymentPeriodRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid payment period payload")
	}
	if req.DueOn.Before(req.StartsOn) {
		return appErrors.Clone(appErrors.ErrValidation, "due date must not precede the period start")
	}
	return nil
}

func (s *PaymentPeriodService) reload(ctx context.Context, id string) (*models.PaymentPeriodDetail, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "payment period not found", "failed to load payment period")
	}
	return period, nil
}

func (s *PaymentPeriodService) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.cache, ResourcePaymentPeriods, ResourcePayments)
}
