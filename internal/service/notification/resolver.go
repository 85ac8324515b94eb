package notification

import "github.com/jwalitptl/lms-api/internal/model"

// overrideExempt types are critical alerts; a user's preference cannot mute them.
var overrideExempt = map[model.NotificationType]bool{
	model.NotificationCertificateExpiring: true,
	model.NotificationCertificateExpired:  true,
	model.NotificationCertificateRevoked:  true,
}

// IsOverrideExempt reports whether t always goes out on the template's default channel.
func IsOverrideExempt(t model.NotificationType) bool {
	return overrideExempt[t]
}

// ResolveChannel picks the delivery channel from the template default and the
// user's stored preference. A missing preference keeps the template default.
func ResolveChannel(templateDefault model.Channel, pref *model.NotificationPreference) model.Channel {
	if pref == nil {
		return templateDefault
	}

	switch {
	case pref.EnableEmail && pref.EnableInApp:
		return model.ChannelBoth
	case pref.EnableEmail:
		return model.ChannelEmail
	case pref.EnableInApp:
		return model.ChannelInApp
	default:
		return model.ChannelNone
	}
}

// ResolveForType is ResolveChannel with the critical-alert exemption applied.
func ResolveForType(t model.NotificationType, templateDefault model.Channel, pref *model.NotificationPreference) model.Channel {
	if IsOverrideExempt(t) {
		return templateDefault
	}
	return ResolveChannel(templateDefault, pref)
}
