package listing

import (
	"time"

	"github.com/noah-isme/sma-fee-tracker/internal/models"
	"github.com/noah-isme/sma-fee-tracker/pkg/query"
)

// Uploads is the search/sort table for payment proofs.
var Uploads = query.MustConfig(
	query.ByTime(func(u models.Upload) time.Time { return u.CreatedAt }),
	[]query.SortField[models.Upload]{
		query.Sortable("FileName", query.ByFold(func(u models.Upload) string { return u.FileName })),
		query.Sortable("SizeBytes", query.By(func(u models.Upload) int64 { return u.SizeBytes })),
		query.Sortable("CreatedAt", query.ByTime(func(u models.Upload) time.Time { return u.CreatedAt })),
	},
	[]query.SearchField[models.Upload]{
		query.Searchable("FileName", query.Contains(func(u models.Upload) string { return u.FileName })),
		query.Searchable("MIMEType", query.Equals(func(u models.Upload) string { return u.MIMEType })),
	},
)
