package listing

import (
	"time"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/fieldpath"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

// Users is the search/sort table for staff accounts.
var Users = query.MustConfig(
	query.ByFold(func(u models.User) string { return u.Email }),
	[]query.SortField[models.User]{
		query.Sortable("Email", query.ByFold(func(u models.User) string { return u.Email })),
		query.Sortable("FullName", query.ByFold(func(u models.User) string { return u.FullName })),
		query.Sortable("Role", query.By(func(u models.User) string { return string(u.Role) })),
		query.Sortable("LastLogin", query.ByTime(func(u models.User) time.Time {
			if u.LastLogin == nil {
				return time.Time{}
			}
			return *u.LastLogin
		})),
	},
	[]query.SearchField[models.User]{
		query.Searchable("Email", query.Contains(func(u models.User) string { return u.Email })),
		query.Searchable("FullName", query.Contains(func(u models.User) string { return u.FullName })),
		query.Searchable("Role", query.Equals(func(u models.User) string { return string(u.Role) })),
	},
)

// UserFields resolves user columns. The password hash is never exposed.
var UserFields = fieldpath.New[models.User]().
	Field("Email", func(u models.User) any { return u.Email }).
	Field("FullName", func(u models.User) any { return u.FullName }).
	Field("Role", func(u models.User) any { return string(u.Role) }).
	Field("Active", func(u models.User) any { return u.Active }).
	Field("LastLogin", func(u models.User) any { return u.LastLogin })
