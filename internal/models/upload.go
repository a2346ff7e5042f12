package models

import "time"

// Upload is a stored proof-of-payment document.
type Upload struct {
	ID          string    `db:"id" json:"id"`
	PaymentID   string    `db:"payment_id" json:"payment_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	MIMEType    string    `db:"mime_type" json:"mime_type"`
	SizeBytes   int64     `db:"size_bytes" json:"size_bytes"`
	Checksum    string    `db:"checksum" json:"checksum"`
	StoragePath string    `db:"storage_path" json:"-"`
	UploadedBy  string    `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SignedURL is a time limited download link.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
