package models

import "time"

// School is a tenant institution.
type School struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Phone     string    `db:"phone" json:"phone"`
	Email     string    `db:"email" json:"email"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SchoolRef is the embedded school summary carried by joined records.
type SchoolRef struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// SchoolRequest is the create/update payload for schools.
type SchoolRequest struct {
	Code    string `json:"code" form:"code" validate:"required,alphanum,max=20"`
	Name    string `json:"name" form:"name" validate:"required,max=150"`
	Address string `json:"address" form:"address" validate:"max=255"`
	Phone   string `json:"phone" form:"phone" validate:"omitempty,max=30"`
	Email   string `json:"email" form:"email" validate:"omitempty,email"`
	Active  *bool  `json:"active" form:"active"`
}
