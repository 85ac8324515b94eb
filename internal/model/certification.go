package model

import (
	"time"

	"github.com/google/uuid"
)

// Certification is one issued credential for a (collaborator, course) pair.
// It is only ever mutated by a revocation; recertifying creates a new row.
type Certification struct {
	Base
	UserID                  uuid.UUID  `json:"user_id" db:"user_id"`
	CourseID                uuid.UUID  `json:"course_id" db:"course_id"`
	IssuedAt                time.Time  `json:"issued_at" db:"issued_at"`
	ExpiresAt               *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	RevokedAt               *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	RevocationReason        *string    `json:"revocation_reason,omitempty" db:"revocation_reason"`
	PreviousCertificationID *uuid.UUID `json:"previous_certification_id,omitempty" db:"previous_certification_id"`
}

type CertificationFilters struct {
	UserID   *uuid.UUID
	CourseID *uuid.UUID
	// ExpiresBefore limits results to non-revoked certifications expiring before the given time.
	ExpiresBefore *time.Time
}

type IssueCertificationRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	CourseID uuid.UUID `json:"course_id" binding:"required"`
}

type RevokeCertificationRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}
