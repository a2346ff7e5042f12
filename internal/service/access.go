package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/database"
	appErrors "github.com/noah-isme/sma-fee-tracker/pkg/errors"
)

// Listing resource names. They double as cache key segments and export
// resource identifiers.
const (
	ResourceSchools        = "schools"
	ResourceStudents       = "students"
	ResourcePaymentPeriods = "payment-periods"
	ResourcePayments       = "payments"
	ResourceUploads        = "uploads"
	ResourceUsers          = "users"
)

// scopeFor limits school admins to their own school.
func scopeFor(actor *models.JWTClaims) models.Scope {
	if actor == nil || actor.Role == models.RoleSuperAdmin {
		return models.Scope{}
	}
	return models.Scope{SchoolID: actor.SchoolID}
}

// canAccessSchool reports whether actor may see records owned by schoolID.
func canAccessSchool(actor *models.JWTClaims, schoolID string) bool {
	if actor == nil || actor.Role == models.RoleSuperAdmin {
		return true
	}
	return actor.SchoolID != "" && actor.SchoolID == schoolID
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// lookupError maps a repository read failure.
func lookupError(err error, notFound, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return internalError(err, failed)
}

// referenceError maps a failed lookup of a record referenced by a payload.
func referenceError(err error, missing, failed string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, missing)
	}
	return internalError(err, failed)
}

// writeError maps a repository write failure, turning constraint violations
// into client errors.
func writeError(err error, notFound, conflict, failed string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case errors.Is(err, database.ErrDuplicateKey):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, conflict)
	case errors.Is(err, database.ErrForeignKeyViolation), errors.Is(err, database.ErrCheckViolation):
		return validationError(err, "referenced record is missing or invalid")
	default:
		return internalError(err, failed)
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

type schoolLookup interface {
	FindByID(ctx context.Context, id string) (*models.School, error)
}

// requireSchool checks that schoolID names an active school actor may manage.
func requireSchool(ctx context.Context, schools schoolLookup, actor *models.JWTClaims, schoolID string) error {
	if !canAccessSchool(actor, schoolID) {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot manage records of another school")
	}
	school, err := schools.FindByID(ctx, schoolID)
	if err != nil {
		return referenceError(err, "school does not exist", "failed to load school")
	}
	if !school.Active {
		return appErrors.Clone(appErrors.ErrValidation, "school is inactive")
	}
	return nil
}
