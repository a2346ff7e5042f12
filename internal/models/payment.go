package models

import "time"

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
)

// Payment is a recorded fee payment.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	ReceiptNumber string        `db:"receipt_number" json:"receipt_number"`
	StudentID     string        `db:"student_id" json:"student_id"`
	PeriodID      string        `db:"period_id" json:"period_id"`
	Amount        int64         `db:"amount" json:"amount"`
	Method        PaymentMethod `db:"method" json:"method"`
	Reference     *string       `db:"reference" json:"reference,omitempty"`
	Notes         *string       `db:"notes" json:"notes,omitempty"`
	PaidAt        time.Time     `db:"paid_at" json:"paid_at"`
	RecordedBy    string        `db:"recorded_by" json:"recorded_by"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// PaymentDetail is a payment joined with its student and period.
type PaymentDetail struct {
	Payment
	Student StudentRef `db:"student" json:"student"`
	Period  PeriodRef  `db:"period" json:"period"`
}

// PaymentRequest records a new payment.
type PaymentRequest struct {
	StudentID string        `json:"student_id" validate:"required,uuid"`
	PeriodID  string        `json:"period_id" validate:"required,uuid"`
	Amount    int64         `json:"amount" validate:"gt=0"`
	Method    PaymentMethod `json:"method" validate:"required,oneof=CASH BANK_TRANSFER CARD MOBILE_MONEY"`
	Reference *string       `json:"reference" validate:"required_unless=Method CASH,omitempty,max=100"`
	Notes     *string       `json:"notes" validate:"omitempty,max=500"`
	PaidAt    *time.Time    `json:"paid_at"`
}
