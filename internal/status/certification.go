// Package status derives display and business statuses for time-bounded
// records. Everything here is pure: callers pass the snapshot and the clock.
package status

import (
	"math"
	"time"

	"github.com/jwalitptl/lms-api/internal/model"
)

type CertificationStatus string

const (
	CertificationValid    CertificationStatus = "valid"
	CertificationExpiring CertificationStatus = "expiring"
	CertificationExpired  CertificationStatus = "expired"
	CertificationRevoked  CertificationStatus = "revoked"
)

// ExpiringWindowDays is how close to expiry a certification starts reporting as expiring.
const ExpiringWindowDays = 30

// CertificationStatuses in the order dashboards list them.
var CertificationStatuses = []CertificationStatus{
	CertificationValid,
	CertificationExpiring,
	CertificationExpired,
	CertificationRevoked,
}

func (s CertificationStatus) Valid() bool {
	for _, known := range CertificationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// ClassifyCertification maps a certification to its status at now.
// Revocation wins over any date; a missing expiry means it never expires.
func ClassifyCertification(cert *model.Certification, now time.Time) CertificationStatus {
	if cert == nil {
		return CertificationValid
	}
	if cert.RevokedAt != nil {
		return CertificationRevoked
	}
	if cert.ExpiresAt == nil {
		return CertificationValid
	}

	days := DaysUntil(*cert.ExpiresAt, now)
	switch {
	case days < 0:
		return CertificationExpired
	case days <= ExpiringWindowDays:
		return CertificationExpiring
	default:
		return CertificationValid
	}
}

// DaysUntil returns floor((t - now) in days).
func DaysUntil(t, now time.Time) int {
	return int(math.Floor(t.Sub(now).Hours() / 24))
}
