package models

import "time"

// PaymentPeriod is a billing window (e.g. a term) with a fixed fee.
type PaymentPeriod struct {
	ID        string    `db:"id" json:"id"`
	SchoolID  string    `db:"school_id" json:"school_id"`
	Name      string    `db:"name" json:"name"`
	StartsOn  time.Time `db:"starts_on" json:"starts_on"`
	EndsOn    time.Time `db:"ends_on" json:"ends_on"`
	DueOn     time.Time `db:"due_on" json:"due_on"`
	Amount    int64     `db:"amount" json:"amount"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PaymentPeriodDetail is a period joined with its school.
type PaymentPeriodDetail struct {
	PaymentPeriod
	School SchoolRef `db:"school" json:"school"`
}

// PeriodRef is the embedded period summary carried by payments.
type PeriodRef struct {
	ID    string    `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	DueOn time.Time `db:"due_on" json:"due_on"`
}

// PaymentPeriodRequest is the create/update payload for payment periods.
type PaymentPeriodRequest struct {
	SchoolID string    `json:"school_id" validate:"required,uuid"`
	Name     string    `json:"name" validate:"required,max=100"`
	StartsOn time.Time `json:"starts_on" validate:"required"`
	EndsOn   time.Time `json:"ends_on" validate:"required,gtfield=StartsOn"`
	DueOn    time.Time `json:"due_on" validate:"required"`
	Amount   int64     `json:"amount" validate:"gte=0"`
	Active   *bool     `json:"active"`
}
