package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationEnrollmentConfirmed NotificationType = "ENROLLMENT_CONFIRMED"
	NotificationCourseCompleted     NotificationType = "COURSE_COMPLETED"
	NotificationQuizResult          NotificationType = "QUIZ_RESULT"
	NotificationRemediationRequired NotificationType = "REMEDIATION_REQUIRED"
	NotificationCertificateIssued   NotificationType = "CERTIFICATE_ISSUED"
	NotificationCertificateExpiring NotificationType = "CERTIFICATE_EXPIRING"
	NotificationCertificateExpired  NotificationType = "CERTIFICATE_EXPIRED"
	NotificationCertificateRevoked  NotificationType = "CERTIFICATE_REVOKED"
)

// NotificationTypes lists every known type in display order.
var NotificationTypes = []NotificationType{
	NotificationEnrollmentConfirmed,
	NotificationCourseCompleted,
	NotificationQuizResult,
	NotificationRemediationRequired,
	NotificationCertificateIssued,
	NotificationCertificateExpiring,
	NotificationCertificateExpired,
	NotificationCertificateRevoked,
}

func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelInApp Channel = "IN_APP"
	ChannelBoth  Channel = "BOTH"
	ChannelNone  Channel = "NONE"
)

// Deliveries expands a resolved channel into the concrete channels to deliver on.
func (c Channel) Deliveries() []Channel {
	switch c {
	case ChannelEmail:
		return []Channel{ChannelEmail}
	case ChannelInApp:
		return []Channel{ChannelInApp}
	case ChannelBoth:
		return []Channel{ChannelEmail, ChannelInApp}
	default:
		return nil
	}
}

// NotificationPreference is one user's channel settings for one type.
type NotificationPreference struct {
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	Type        NotificationType `json:"type" db:"type"`
	EnableEmail bool             `json:"enable_email" db:"enable_email"`
	EnableInApp bool             `json:"enable_in_app" db:"enable_in_app"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

type UpdatePreferenceRequest struct {
	EnableEmail *bool `json:"enable_email" binding:"required"`
	EnableInApp *bool `json:"enable_in_app" binding:"required"`
}

type NotificationTemplate struct {
	Type           NotificationType `json:"type" db:"type"`
	Subject        string           `json:"subject" db:"subject"`
	Body           string           `json:"body" db:"body"`
	DefaultChannel Channel          `json:"default_channel" db:"default_channel"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

type UpsertTemplateRequest struct {
	Subject        string  `json:"subject" binding:"required,max=300"`
	Body           string  `json:"body" binding:"required"`
	DefaultChannel Channel `json:"default_channel" binding:"required,channel"`
}

type NotificationStatus string

const (
	NotificationStatusPending  NotificationStatus = "pending"
	NotificationStatusSent     NotificationStatus = "sent"
	NotificationStatusFailed   NotificationStatus = "failed"
	NotificationStatusRetrying NotificationStatus = "retrying"
)

// Notification is one delivery on one concrete channel.
type Notification struct {
	ID          uuid.UUID          `json:"id" db:"id"`
	UserID      uuid.UUID          `json:"user_id" db:"user_id"`
	Type        NotificationType   `json:"type" db:"type"`
	Channel     Channel            `json:"channel" db:"channel"`
	Recipient   string             `json:"-" db:"recipient"`
	Subject     string             `json:"subject" db:"subject"`
	Body        string             `json:"body" db:"body"`
	ReferenceID *uuid.UUID         `json:"reference_id,omitempty" db:"reference_id"`
	Status      NotificationStatus `json:"status" db:"status"`
	RetryCount  int                `json:"-" db:"retry_count"`
	LastError   *string            `json:"-" db:"last_error"`
	ReadAt      *time.Time         `json:"read_at,omitempty" db:"read_at"`
	SentAt      *time.Time         `json:"sent_at,omitempty" db:"sent_at"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
}

type NotificationFilters struct {
	UserID     uuid.UUID
	Channel    Channel
	UnreadOnly bool
	Pagination
}

// InAppMessage is what subscribers of the per-user channel receive.
type InAppMessage struct {
	NotificationID uuid.UUID        `json:"notification_id"`
	UserID         uuid.UUID        `json:"user_id"`
	Type           NotificationType `json:"type"`
	Subject        string           `json:"subject"`
	Body           string           `json:"body"`
	CreatedAt      time.Time        `json:"created_at"`
}
