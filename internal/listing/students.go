package listing

import (
	"time"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/fieldpath"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

// Students is the search/sort table for students.
var Students = query.MustConfig(
	query.ByFold(func(s models.StudentDetail) string { return s.FullName }),
	[]query.SortField[models.StudentDetail]{
		query.Sortable("FullName", query.ByFold(func(s models.StudentDetail) string { return s.FullName })),
		query.Sortable("NIS", query.By(func(s models.StudentDetail) string { return s.NIS })),
		query.Sortable("ClassName", query.ByFold(func(s models.StudentDetail) string { return s.ClassName })),
		query.Sortable("School", query.ByFold(func(s models.StudentDetail) string { return s.School.Name })),
		query.Sortable("EnrolledAt", query.ByTime(func(s models.StudentDetail) time.Time { return s.EnrolledAt })),
		query.Sortable("Active", query.ByBool(func(s models.StudentDetail) bool { return s.Active })),
	},
	[]query.SearchField[models.StudentDetail]{
		query.Searchable("FullName", query.Contains(func(s models.StudentDetail) string { return s.FullName })),
		query.Searchable("NIS", query.HasPrefix(func(s models.StudentDetail) string { return s.NIS })),
		query.Searchable("ClassName", query.Equals(func(s models.StudentDetail) string { return s.ClassName })),
		query.Searchable("GuardianName", query.Contains(func(s models.StudentDetail) string { return s.GuardianName })),
		query.Searchable("School", query.Contains(func(s models.StudentDetail) string { return s.School.Name })),
	},
)

// StudentFields resolves student columns, including the joined school.
var StudentFields = studentFields()

func studentFields() *fieldpath.Resolver[models.StudentDetail] {
	r := fieldpath.New[models.StudentDetail]().
		Field("NIS", func(s models.StudentDetail) any { return s.NIS }).
		Field("FullName", func(s models.StudentDetail) any { return s.FullName }).
		Field("Gender", func(s models.StudentDetail) any { return s.Gender }).
		Field("ClassName", func(s models.StudentDetail) any { return s.ClassName }).
		Field("GuardianName", func(s models.StudentDetail) any { return s.GuardianName }).
		Field("GuardianPhone", func(s models.StudentDetail) any { return s.GuardianPhone }).
		Field("EnrolledAt", func(s models.StudentDetail) any { return s.EnrolledAt }).
		Field("Active", func(s models.StudentDetail) any { return s.Active })
	return fieldpath.Nested(r, "School", func(s models.StudentDetail) (models.SchoolRef, bool) { return schoolRef(s.School) }, schoolRefFields())
}

func studentRefFields() *fieldpath.Resolver[models.StudentRef] {
	r := fieldpath.New[models.StudentRef]().
		Field("NIS", func(s models.StudentRef) any { return s.NIS }).
		Field("FullName", func(s models.StudentRef) any { return s.FullName }).
		Field("ClassName", func(s models.StudentRef) any { return s.ClassName })
	return fieldpath.Nested(r, "School", func(s models.StudentRef) (models.SchoolRef, bool) { return schoolRef(s.School) }, schoolRefFields())
}
