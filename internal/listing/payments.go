package listing

import (
	"time"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/fieldpath"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

// Payments is the search/sort table for payments. The most recent payment
// comes first by default.
var Payments = query.MustConfig(
	func(a, b models.PaymentDetail) int { return b.PaidAt.Compare(a.PaidAt) },
	[]query.SortField[models.PaymentDetail]{
		query.Sortable("PaidAt", query.ByTime(func(p models.PaymentDetail) time.Time { return p.PaidAt })),
		query.Sortable("Amount", query.By(func(p models.PaymentDetail) int64 { return p.Amount })),
		query.Sortable("ReceiptNumber", query.By(func(p models.PaymentDetail) string { return p.ReceiptNumber })),
		query.Sortable("Method", query.By(func(p models.PaymentDetail) string { return string(p.Method) })),
		query.Sortable("Student", query.ByFold(func(p models.PaymentDetail) string { return p.Student.FullName })),
		query.Sortable("Period", query.ByFold(func(p models.PaymentDetail) string { return p.Period.Name })),
	},
	[]query.SearchField[models.PaymentDetail]{
		query.Searchable("ReceiptNumber", query.HasPrefix(func(p models.PaymentDetail) string { return p.ReceiptNumber })),
		query.Searchable("Student", query.Contains(func(p models.PaymentDetail) string { return p.Student.FullName })),
		query.Searchable("NIS", query.HasPrefix(func(p models.PaymentDetail) string { return p.Student.NIS })),
		query.Searchable("Method", query.Equals(func(p models.PaymentDetail) string { return string(p.Method) })),
		query.Searchable("Period", query.Contains(func(p models.PaymentDetail) string { return p.Period.Name })),
		query.Searchable("Reference", query.Contains(func(p models.PaymentDetail) string { return deref(p.Reference) })),
	},
)

// PaymentFields resolves payment columns, including the joined student,
// school and period.
var PaymentFields = paymentFields()

func paymentFields() *fieldpath.Resolver[models.PaymentDetail] {
	r := fieldpath.New[models.PaymentDetail]().
		Field("ReceiptNumber", func(p models.PaymentDetail) any { return p.ReceiptNumber }).
		Field("PaidAt", func(p models.PaymentDetail) any { return p.PaidAt }).
		Field("Amount", func(p models.PaymentDetail) any { return p.Amount }).
		Field("Method", func(p models.PaymentDetail) any { return string(p.Method) }).
		Field("Reference", func(p models.PaymentDetail) any { return p.Reference }).
		Field("Notes", func(p models.PaymentDetail) any { return p.Notes })
	r = fieldpath.Nested(r, "Student", func(p models.PaymentDetail) (models.StudentRef, bool) {
		return p.Student, p.Student.ID != ""
	}, studentRefFields())
	return fieldpath.Nested(r, "Period", func(p models.PaymentDetail) (models.PeriodRef, bool) {
		return p.Period, p.Period.ID != ""
	}, periodRefFields())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
