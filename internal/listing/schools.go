package listing

import (
	"time"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/fieldpath"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

// Schools is the search/sort table for schools.
var Schools = query.MustConfig(
	query.ByFold(func(s models.School) string { return s.Name }),
	[]query.SortField[models.School]{
		query.Sortable("Name", query.ByFold(func(s models.School) string { return s.Name })),
		query.Sortable("Code", query.ByFold(func(s models.School) string { return s.Code })),
		query.Sortable("Active", query.ByBool(func(s models.School) bool { return s.Active })),
		query.Sortable("CreatedAt", query.ByTime(func(s models.School) time.Time { return s.CreatedAt })),
	},
	[]query.SearchField[models.School]{
		query.Searchable("Name", query.Contains(func(s models.School) string { return s.Name })),
		query.Searchable("Code", query.HasPrefix(func(s models.School) string { return s.Code })),
		query.Searchable("Email", query.Contains(func(s models.School) string { return s.Email })),
		query.Searchable("Phone", query.Contains(func(s models.School) string { return s.Phone })),
	},
)

// SchoolFields resolves school columns.
var SchoolFields = schoolFields()

func schoolFields() *fieldpath.Resolver[models.School] {
	return fieldpath.New[models.School]().
		Field("Code", func(s models.School) any { return s.Code }).
		Field("Name", func(s models.School) any { return s.Name }).
		Field("Address", func(s models.School) any { return s.Address }).
		Field("Phone", func(s models.School) any { return s.Phone }).
		Field("Email", func(s models.School) any { return s.Email }).
		Field("Active", func(s models.School) any { return s.Active }).
		Field("CreatedAt", func(s models.School) any { return s.CreatedAt })
}

func schoolRefFields() *fieldpath.Resolver[models.SchoolRef] {
	return fieldpath.New[models.SchoolRef]().
		Field("Code", func(s models.SchoolRef) any { return s.Code }).
		Field("Name", func(s models.SchoolRef) any { return s.Name })
}

func schoolRef(s models.SchoolRef) (models.SchoolRef, bool) {
	return s, s.ID != ""
}
