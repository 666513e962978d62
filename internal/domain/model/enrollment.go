package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Enrollment is owned by course management; this service only creates it and
// toggles IsActive. Progress and CompletedAt are never written here.
type Enrollment struct {
	ID          string
	UserID      string
	CourseID    string
	IsActive    bool
	Progress    decimal.Decimal
	EnrolledAt  time.Time
	CompletedAt *time.Time
}

// EnrollmentChange describes what a reconcile call did.
type EnrollmentChange string

const (
	EnrollmentCreated     EnrollmentChange = "created"
	EnrollmentReactivated EnrollmentChange = "reactivated"
	EnrollmentPaused      EnrollmentChange = "paused"
	EnrollmentUnchanged   EnrollmentChange = "unchanged"
	EnrollmentMissing     EnrollmentChange = "missing"
)

// Course is the read-only view of the course catalog this service needs.
type Course struct {
	ID           string
	Title        string
	Price        decimal.Decimal
	InstructorID string
}
