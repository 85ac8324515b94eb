package model

import (
	"time"

	"github.com/google/uuid"
)

type Course struct {
	Base
	Title                       string    `json:"title" db:"title"`
	Description                 string    `json:"description" db:"description"`
	CertificationValidityMonths *int      `json:"certification_validity_months,omitempty" db:"certification_validity_months"`
	Published                   bool      `json:"published" db:"published"`
	CreatedBy                   uuid.UUID `json:"created_by" db:"created_by"`
}

type CreateCourseRequest struct {
	Title                       string `json:"title" binding:"required,max=200"`
	Description                 string `json:"description" binding:"max=5000"`
	CertificationValidityMonths *int   `json:"certification_validity_months" binding:"omitempty,min=1,max=120"`
	Published                   bool   `json:"published"`
}

type CourseFilters struct {
	PublishedOnly bool
	Pagination
}

type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

type Enrollment struct {
	Base
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	CourseID    uuid.UUID        `json:"course_id" db:"course_id"`
	Status      EnrollmentStatus `json:"status" db:"status"`
	EnrolledAt  time.Time        `json:"enrolled_at" db:"enrolled_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty" db:"completed_at"`
}

type EnrollRequest struct {
	// UserID lets an admin enroll someone else; collaborators enroll themselves.
	UserID *uuid.UUID `json:"user_id"`
}

type EnrollmentFilters struct {
	UserID   *uuid.UUID
	CourseID *uuid.UUID
	Status   EnrollmentStatus
}
