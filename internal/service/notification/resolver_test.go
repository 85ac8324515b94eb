package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/lms-api/internal/model"
)

func pref(email, inApp bool) *model.NotificationPreference {
	return &model.NotificationPreference{EnableEmail: email, EnableInApp: inApp}
}

func TestResolveChannel(t *testing.T) {
	tests := []struct {
		name     string
		def      model.Channel
		pref     *model.NotificationPreference
		expected model.Channel
	}{
		{"no preference keeps default", model.ChannelEmail, nil, model.ChannelEmail},
		{"no preference keeps in-app default", model.ChannelInApp, nil, model.ChannelInApp},
		{"both disabled", model.ChannelEmail, pref(false, false), model.ChannelNone},
		{"both enabled", model.ChannelEmail, pref(true, true), model.ChannelBoth},
		{"email only", model.ChannelInApp, pref(true, false), model.ChannelEmail},
		{"in-app only", model.ChannelBoth, pref(false, true), model.ChannelInApp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveChannel(tt.def, tt.pref))
		})
	}
}

func TestResolveForType(t *testing.T) {
	muted := pref(false, false)

	assert.Equal(t, model.ChannelBoth, ResolveForType(model.NotificationCertificateExpiring, model.ChannelBoth, muted))
	assert.Equal(t, model.ChannelEmail, ResolveForType(model.NotificationCertificateExpired, model.ChannelEmail, muted))
	assert.Equal(t, model.ChannelBoth, ResolveForType(model.NotificationCertificateRevoked, model.ChannelBoth, pref(true, false)))

	assert.Equal(t, model.ChannelNone, ResolveForType(model.NotificationQuizResult, model.ChannelInApp, muted))
	assert.Equal(t, model.ChannelInApp, ResolveForType(model.NotificationQuizResult, model.ChannelInApp, nil))
}

func TestRender(t *testing.T) {
	data := map[string]string{"name": "Ada", "course_title": "Safety 101"}

	assert.Equal(t, "Hi Ada, welcome to Safety 101.", Render("Hi {{name}}, welcome to {{course_title}}.", data))
	assert.Equal(t, "Hi Ada, {{unknown}} stays.", Render("Hi {{name}}, {{unknown}} stays.", data))
	assert.Equal(t, "no tokens", Render("no tokens", data))
	assert.Equal(t, "{{name}}", Render("{{name}}", nil))
	assert.Equal(t, "AdaAda", Render("{{name}}{{name}}", data))
}

func TestDefaultTemplates(t *testing.T) {
	for _, nt := range model.NotificationTypes {
		tmpl, ok := DefaultTemplate(nt)
		if assert.True(t, ok, "missing default template for %s", nt) {
			assert.Equal(t, nt, tmpl.Type)
			assert.NotEmpty(t, tmpl.Subject)
			assert.NotEmpty(t, tmpl.DefaultChannel.Deliveries())
		}
	}
	_, ok := DefaultTemplate("NOPE")
	assert.False(t, ok)
}
