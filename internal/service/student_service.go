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

type studentRepository interface {
	All(ctx context.Context, scope models.Scope) ([]models.StudentDetail, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	schools   schoolLookup
	list      *lister[models.StudentDetail]
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, schools schoolLookup, deps ListingDeps, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		repo:      repo,
		schools:   schools,
		list:      newLister(ResourceStudents, listing.Students, listing.StudentFields, repo.All, deps),
		cache:     deps.Cache,
		validator: validate,
		logger:    logger,
	}
}

// List returns one page of students visible to actor.
func (s *StudentService) List(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, opts ListOptions) (*models.ListResult[models.StudentDetail], error) {
	return s.list.list(ctx, scopeFor(actor), q, opts)
}

// ExportTable renders the students visible to actor as a table.
func (s *StudentService) ExportTable(ctx context.Context, actor *models.JWTClaims, q models.ListQuery, columns []string) (export.Table, error) {
	return s.list.table(ctx, scopeFor(actor), q, columns, "Students")
}

// Get returns detailed student information.
func (s *StudentService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	if !canAccessSchool(actor, student.SchoolID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, actor *models.JWTClaims, req models.StudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	if err := requireSchool(ctx, s.schools, actor, req.SchoolID); err != nil {
		return nil, err
	}
	student := &models.Student{
		SchoolID:      req.SchoolID,
		NIS:           req.NIS,
		FullName:      strings.TrimSpace(req.FullName),
		Gender:        req.Gender,
		ClassName:     req.ClassName,
		GuardianName:  req.GuardianName,
		GuardianPhone: req.GuardianPhone,
		EnrolledAt:    req.EnrolledAt,
		Active:        boolOr(req.Active, true),
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, writeError(err, "student not found", "nis already used", "failed to create student")
	}
	s.invalidate(ctx)
	return s.reload(ctx, student.ID)
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.StudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
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
	student := current.Student
	student.SchoolID = req.SchoolID
	student.NIS = req.NIS
	student.FullName = strings.TrimSpace(req.FullName)
	student.Gender = req.Gender
	student.ClassName = req.ClassName
	student.GuardianName = req.GuardianName
	student.GuardianPhone = req.GuardianPhone
	student.EnrolledAt = req.EnrolledAt
	student.Active = boolOr(req.Active, student.Active)
	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, writeError(err, "student not found", "nis already used", "failed to update student")
	}
	s.invalidate(ctx)
	return s.reload(ctx, id)
}

// Delete deactivates a student.
func (s *StudentService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return lookupError(err, "student not found", "failed to delete student")
	}
	s.invalidate(ctx)
	return nil
}

func (s *StudentService) reload(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "student not found", "failed to load student")
	}
	return student, nil
}

func (s *StudentService) invalidate(ctx context.Context) {
	invalidateListings(ctx, s.cache, ResourceStudents, ResourcePayments)
}
