package models

import "time"

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// ListQuery carries the search, sort and paging parameters of a list request.
type ListQuery struct {
	Search      string
	SearchField string
	Sort        string
	Page        int
	PageSize    int
}

// Scope narrows a listing to records owned by a school, student, period or
// payment. Empty fields do not filter.
type Scope struct {
	SchoolID  string
	StudentID string
	PeriodID  string
	PaymentID string
}

// ListResult is one page of a listing plus its presentation metadata.
type ListResult[T any] struct {
	Items      []T
	Pagination Pagination
	Meta       map[string]interface{}
}

// ExportRequest asks for a rendered, unpaged listing.
type ExportRequest struct {
	Resource    string   `json:"resource" validate:"required,oneof=schools students payment-periods payments users"`
	Format      string   `json:"format" validate:"required,oneof=csv pdf"`
	Search      string   `json:"search"`
	SearchField string   `json:"search_field"`
	Sort        string   `json:"sort"`
	Columns     []string `json:"columns" validate:"omitempty,max=20,dive,required"`
}

// ExportResult describes a rendered export.
type ExportResult struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Rows      int       `json:"rows"`
	Format    string    `json:"format"`
}
