package models

import "time"

// Student represents a learner registered at a school.
type Student struct {
	ID            string    `db:"id" json:"id"`
	SchoolID      string    `db:"school_id" json:"school_id"`
	NIS           string    `db:"nis" json:"nis"`
	FullName      string    `db:"full_name" json:"full_name"`
	Gender        string    `db:"gender" json:"gender"`
	ClassName     string    `db:"class_name" json:"class_name"`
	GuardianName  string    `db:"guardian_name" json:"guardian_name"`
	GuardianPhone string    `db:"guardian_phone" json:"guardian_phone"`
	Active        bool      `db:"active" json:"active"`
	EnrolledAt    time.Time `db:"enrolled_at" json:"enrolled_at"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail is a student joined with its school.
type StudentDetail struct {
	Student
	School SchoolRef `db:"school" json:"school"`
}

// StudentRef is the embedded student summary carried by payments.
type StudentRef struct {
	ID        string    `db:"id" json:"id"`
	NIS       string    `db:"nis" json:"nis"`
	FullName  string    `db:"full_name" json:"full_name"`
	ClassName string    `db:"class_name" json:"class_name"`
	School    SchoolRef `db:"school" json:"school"`
}

// StudentRequest is the create/update payload for students.
type StudentRequest struct {
	SchoolID      string    `json:"school_id" validate:"required,uuid"`
	NIS           string    `json:"nis" validate:"required,numeric,max=20"`
	FullName      string    `json:"full_name" validate:"required,max=150"`
	Gender        string    `json:"gender" validate:"required,oneof=M F"`
	ClassName     string    `json:"class_name" validate:"max=30"`
	GuardianName  string    `json:"guardian_name" validate:"max=150"`
	GuardianPhone string    `json:"guardian_phone" validate:"omitempty,max=30"`
	EnrolledAt    time.Time `json:"enrolled_at" validate:"required"`
	Active        *bool     `json:"active"`
}
