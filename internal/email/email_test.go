package email

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lms-api/config"
	"github.com/jwalitptl/lms-api/pkg/logger"
)

type countingSender struct {
	calls int
	err   error
}

func (s *countingSender) Send(context.Context, Message) error {
	s.calls++
	return s.err
}

func TestBreakerSender_OpensAfterConsecutiveFailures(t *testing.T) {
	next := &countingSender{err: errors.New("connection refused")}
	sender := NewBreakerSender(next, "test", logger.Nop())
	msg := Message{To: "a@example.com", Subject: "s", Body: "b"}

	for i := 0; i < 5; i++ {
		assert.Error(t, sender.Send(context.Background(), msg))
	}
	err := sender.Send(context.Background(), msg)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, next.calls)
}

func TestNewSender(t *testing.T) {
	_, err := NewSender(config.EmailConfig{Provider: "pigeon"}, logger.Nop())
	assert.Error(t, err)

	sender, err := NewSender(config.EmailConfig{Provider: "log"}, logger.Nop())
	require.NoError(t, err)
	assert.NoError(t, sender.Send(context.Background(), Message{To: "a@example.com"}))
	assert.ErrorIs(t, sender.Send(context.Background(), Message{}), ErrNoRecipient)
}

func TestSendGridSender_Send(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, sendgridEndpoint, r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender(config.EmailConfig{SendGridAPIKey: "key", From: "lms@example.com"}).(*sendgridSender)
	s.host = srv.URL

	err := s.Send(context.Background(), Message{To: "learner@example.com", Subject: "Hello", Body: "Body"})
	require.NoError(t, err)
	assert.Equal(t, "lms@example.com", got["from"].(map[string]interface{})["email"])
}

func TestSendGridSender_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := NewSendGridSender(config.EmailConfig{SendGridAPIKey: "bad", From: "lms@example.com"}).(*sendgridSender)
	s.host = srv.URL

	err := s.Send(context.Background(), Message{To: "learner@example.com", Subject: "Hello", Body: "Body"})
	assert.ErrorContains(t, err, "status 401")
}

func TestSMTPSender_Message(t *testing.T) {
	s := NewSMTPSender(config.EmailConfig{From: "lms@example.com", FromName: "LMS"}).(*smtpSender)
	m := s.message(Message{To: "learner@example.com", Subject: "Quiz result"})

	assert.Equal(t, []string{"learner@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Quiz result"}, m.GetHeader("Subject"))
	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrNoRecipient)
}
