package notification

import (
	"strings"

	"github.com/jwalitptl/lms-api/internal/model"
)

// Render substitutes {{token}} placeholders from data. Tokens missing from
// data are left as they are.
func Render(text string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(text, "{{") {
		return text
	}

	pairs := make([]string, 0, len(data)*2)
	for token, value := range data {
		pairs = append(pairs, "{{"+token+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// defaultTemplates are used for any type without a stored template.
var defaultTemplates = map[model.NotificationType]model.NotificationTemplate{
	model.NotificationEnrollmentConfirmed: {
		Subject:        "You are enrolled in {{course_title}}",
		Body:           "Hi {{name}}, you are now enrolled in {{course_title}}.",
		DefaultChannel: model.ChannelBoth,
	},
	model.NotificationCourseCompleted: {
		Subject:        "You completed {{course_title}}",
		Body:           "Hi {{name}}, congratulations on completing {{course_title}}.",
		DefaultChannel: model.ChannelBoth,
	},
	model.NotificationQuizResult: {
		Subject:        "Your result for {{quiz_title}}",
		Body:           "Hi {{name}}, you scored {{score}} on {{quiz_title}} (attempt {{attempt_number}}): {{result}}.",
		DefaultChannel: model.ChannelInApp,
	},
	model.NotificationRemediationRequired: {
		Subject:        "Remediation required for {{quiz_title}}",
		Body:           "Hi {{name}}, please complete the remediation material for {{quiz_title}} before your next attempt.",
		DefaultChannel: model.ChannelBoth,
	},
	model.NotificationCertificateIssued: {
		Subject:        "Your {{course_title}} certificate",
		Body:           "Hi {{name}}, your certificate for {{course_title}} was issued on {{issued_at}}. It expires {{expires_at}}.",
		DefaultChannel: model.ChannelEmail,
	},
	model.NotificationCertificateExpiring: {
		Subject:        "Your {{course_title}} certificate expires in {{days_left}} days",
		Body:           "Hi {{name}}, your certificate for {{course_title}} expires on {{expires_at}}. Please recertify.",
		DefaultChannel: model.ChannelBoth,
	},
	model.NotificationCertificateExpired: {
		Subject:        "Your {{course_title}} certificate has expired",
		Body:           "Hi {{name}}, your certificate for {{course_title}} expired on {{expires_at}}.",
		DefaultChannel: model.ChannelBoth,
	},
	model.NotificationCertificateRevoked: {
		Subject:        "Your {{course_title}} certificate was revoked",
		Body:           "Hi {{name}}, your certificate for {{course_title}} was revoked: {{reason}}.",
		DefaultChannel: model.ChannelBoth,
	},
}

// DefaultTemplate returns the built-in template for t and whether one exists.
func DefaultTemplate(t model.NotificationType) (*model.NotificationTemplate, bool) {
	tmpl, ok := defaultTemplates[t]
	if !ok {
		return nil, false
	}
	tmpl.Type = t
	return &tmpl, true
}
