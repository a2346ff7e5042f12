package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-fee-tracker/internal/listing"
	"github.com/noah-isme/sma-fee-tracker/internal/models"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
	"github.com/noah-isme/sma-fee-tracker/pkg/export"
)

type paymentRepository interface {
	All(ctx context.Context, scope models.Scope) ([]models.PaymentDetail, error)
	FindByID(ctx context.Context, id string) (*models.PaymentDetail, error)
	Create(ctx context.Context, payment *models.Payment) error
	Delete(ctx context.Context, id string) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type periodLookup interface {
	FindByID(ctx context.Context, id string) (*models.PaymentPeriodDetail, error)
}

type uploadIndex interface {
	All(ctx context.Context, scope models.Scope) ([]models.Upload, error)
}

type fileRemover interface {
	Delete(name string) error
}

// PaymentFilter narrows a payment listing to one student or period.
type PaymentFilter struct {
	StudentID string
	PeriodID  string
}

// PaymentService records and lists fee payments.
type PaymentService struct {
	repo      paymentRepository
	students  studentLookup
	periods   periodLookup
	uploads   uploadIndex
	files     fileRemover
	list      *lister[models.PaymentDetail]
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentService constructs the payment service. uploads and files are
// used to remove stored proofs when a payment is deleted; either may be nil.
func NewPaymentService(repo paymentRepository, students studentLookup, periods periodLookup, uploads uploadIndex, files fileRemover, deps ListingDeps, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		repo:      repo,
		students:  students,
		periods:   periods,
		uploads:   uploads,
		files:     files,
		list:      newLister(ResourcePayments, listing.Payments, listing.PaymentFields, repo.All, deps),
		cache:     deps.Cache,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

func paymentScope(actor *models.JWTClaims, filter PaymentFilter) models.Scope {
	scope := scopeFor(actor)
	scope.StudentID = filter.StudentID
	scope.PeriodID = filter.PeriodID
	return scope
}

// List returns one page of payments visible to actor.
func (s *PaymentService) List(ctx context.Context, actor *models.JWTClaims, filter PaymentFilter, q models.ListQuery, opts ListOptions) (*models.ListResult[models.PaymentDetail], error) {
	return s.list.list(ctx, paymentScope(actor, filter), q, opts)
}

// ExportTable renders the payments visible to actor as a table.
func (s *PaymentService) ExportTable(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, columns []string) (export.Table, error) {
	return s.list.table(ctx, scopeFor(actor), q, columns, "Payments")
}

// Get returns a payment by ID.
func (s *PaymentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.PaymentDetail, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "payment not found", "failed to load payment")
	}
	if !canAccessSchool(actor, payment.Student.School.ID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
	}
	return payment, nil
}

// Create records a payment against an active student and period of the same school.
func (s *PaymentService) Create(ctx context.Context, actor *models.JWTClaims, req models.PaymentRequest) (*models.PaymentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid payment payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, referenceError(err, "student does not exist", "failed to load student")
	}
	if !canAccessSchool(actor, student.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot record payments for another school")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is inactive")
	}
	period, err := s.periods.FindByID(ctx, req.PeriodID)
	if err != nil {
		return nil, referenceError(err, "payment period does not exist", "failed to load payment period")
	}
	if period.SchoolID != student.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment period belongs to another school")
	}
	if !period.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment period is closed")
	}

	now := s.now().UTC()
	paidAt := now
	if req.PaidAt != nil {
		paidAt = req.PaidAt.UTC()
		if paidAt.After(now) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "paid_at cannot be in the future")
		}
	}
	payment := &models.Payment{
		StudentID: req.StudentID,
		PeriodID:  req.PeriodID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: trimmed(req.Reference),
		Notes:     trimmed(req.Notes),
		PaidAt:    paidAt,
	}
	if actor != nil {
		payment.RecordedBy = actor.UserID
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, writeError(err, "payment not found", "receipt number already issued", "failed to record payment")
	}
	s.invalidate(ctx)
	s.logger.Info("payment recorded",
		zap.String("payment_id", payment.ID),
		zap.String("receipt_number", payment.ReceiptNumber),
		zap.Int64("amount", payment.Amount),
	)

	detail, err := s.repo.FindByID(ctx, payment.ID)
	if err != nil {
		return nil, lookupError(err, "payment not found", "failed to load payment")
	}
	return detail, nil
}

// Delete voids a payment together with its stored proofs.
func (s *PaymentService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	var proofs []models.Upload
	if s.uploads != nil {
		var err error
		if proofs, err = s.uploads.All(ctx, models.Scope{PaymentID: id}); err != nil {
			return internalError(err, "failed to load payment uploads")
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "payment not found", "failed to delete payment")
	}
	if s.files != nil {
		for _, proof := range proofs {
			if err := s.files.Delete(proof.StoragePath); err != nil {
				s.logger.Warn("failed to remove payment upload", zap.String("upload_id", proof.ID), zap.Error(err))
			}
		}
	}
	s.invalidate(ctx)
	invalidateListings(ctx, s.cache, ResourceUploads)
	return nil
}

func (s *PaymentService) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.cache, ResourcePayments)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
