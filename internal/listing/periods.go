package listing

import (
	"time"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/fieldpath"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

// PaymentPeriods is the search/sort table for payment periods. Newest periods
// come first by default.
var PaymentPeriods = query.MustConfig(
	func(a, b models.PaymentPeriodDetail) int { return b.StartsOn.Compare(a.StartsOn) },
	[]query.SortField[models.PaymentPeriodDetail]{
		query.Sortable("Name", query.ByFold(func(p models.PaymentPeriodDetail) string { return p.Name })),
		query.Sortable("StartsOn", query.ByTime(func(p models.PaymentPeriodDetail) time.Time { return p.StartsOn })),
		query.Sortable("DueOn", query.ByTime(func(p models.PaymentPeriodDetail) time.Time { return p.DueOn })),
		query.Sortable("Amount", query.By(func(p models.PaymentPeriodDetail) int64 { return p.Amount })),
		query.Sortable("School", query.ByFold(func(p models.PaymentPeriodDetail) string { return p.School.Name })),
	},
	[]query.SearchField[models.PaymentPeriodDetail]{
		query.Searchable("Name", query.Contains(func(p models.PaymentPeriodDetail) string { return p.Name })),
		query.Searchable("School", query.Contains(func(p models.PaymentPeriodDetail) string { return p.School.Name })),
	},
)

// PaymentPeriodFields resolves payment period columns.
var PaymentPeriodFields = paymentPeriodFields()

func paymentPeriodFields() *fieldpath.Resolver[models.PaymentPeriodDetail] {
	r := fieldpath.New[models.PaymentPeriodDetail]().
		Field("Name", func(p models.PaymentPeriodDetail) any { return p.Name }).
		Field("StartsOn", func(p models.PaymentPeriodDetail) any { return p.StartsOn }).
		Field("EndsOn", func(p models.PaymentPeriodDetail) any { return p.EndsOn }).
		Field("DueOn", func(p models.PaymentPeriodDetail) any { return p.DueOn }).
		Field("Amount", func(p models.PaymentPeriodDetail) any { return p.Amount }).
		Field("Active", func(p models.PaymentPeriodDetail) any { return p.Active })
	return fieldpath.Nested(r, "School", func(p models.PaymentPeriodDetail) (models.SchoolRef, bool) { return schoolRef(p.School) }, schoolRefFields())
}

func periodRefFields() *fieldpath.Resolver[models.PeriodRef] {
	return fieldpath.New[models.PeriodRef]().
		Field("Name", func(p models.PeriodRef) any { return p.Name }).
		Field("DueOn", func(p models.PeriodRef) any { return p.DueOn })
}
