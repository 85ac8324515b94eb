package email

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/jwalitptl/lms-api/config"
	"github.com/jwalitptl/lms-api/pkg/logger"
)

// Message is one plain-text email to one recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var ErrNoRecipient = errors.New("email has no recipient")

// NewSender builds the sender for the configured provider, guarded by a circuit breaker.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	var sender Sender
	switch cfg.Provider {
	case "smtp":
		sender = NewSMTPSender(cfg)
	case "sendgrid":
		sender = NewSendGridSender(cfg)
	case "log", "":
		sender = NewLogSender(log)
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
	return NewBreakerSender(sender, cfg.Provider, log), nil
}

type breakerSender struct {
	next Sender
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerSender stops calling next for a while after five consecutive failures.
func NewBreakerSender(next Sender, name string, log *logger.Logger) Sender {
	settings := gobreaker.Settings{
		Name:        "email-" + name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("email circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerSender{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (s *breakerSender) Send(ctx context.Context, msg Message) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.next.Send(ctx, msg)
	})
	return err
}

type logSender struct {
	log *logger.Logger
}

// NewLogSender writes emails to the log instead of sending them.
func NewLogSender(log *logger.Logger) Sender {
	return &logSender{log: log}
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	s.log.Info("email", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
