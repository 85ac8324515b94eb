package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
	"github.com/jwalitptl/lms-api/pkg/logger"
	"github.com/jwalitptl/lms-api/pkg/metrics"
)

// Notifier is what other services use to tell a user something happened.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, t model.NotificationType, data map[string]string, referenceID *uuid.UUID) error
}

type NotificationServicer interface {
	Notifier
	ListTemplates(ctx context.Context) ([]*model.NotificationTemplate, error)
	UpsertTemplate(ctx context.Context, t model.NotificationType, req *model.UpsertTemplateRequest) (*model.NotificationTemplate, error)
	ListPreferences(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error)
	UpdatePreference(ctx context.Context, userID uuid.UUID, t model.NotificationType, req *model.UpdatePreferenceRequest) (*model.NotificationPreference, error)
	ListInbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, page model.Pagination) ([]*model.Notification, int, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
}

type Service struct {
	templates     repository.TemplateRepository
	preferences   repository.PreferenceRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	cache         *cache.Cache
	metrics       *metrics.Metrics
	logger        *logger.Logger
	now           func() time.Time
}

func NewService(
	templates repository.TemplateRepository,
	preferences repository.PreferenceRepository,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	cacheTTL time.Duration,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		templates:     templates,
		preferences:   preferences,
		notifications: notifications,
		users:         users,
		cache:         cache.New(cacheTTL, 2*cacheTTL),
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

func templateKey(t model.NotificationType) string {
	return "template:" + string(t)
}

// Template returns the stored template for t, falling back to the built-in one.
func (s *Service) Template(ctx context.Context, t model.NotificationType) (*model.NotificationTemplate, error) {
	if cached, ok := s.cache.Get(templateKey(t)); ok {
		return cached.(*model.NotificationTemplate), nil
	}

	tmpl, err := s.templates.Get(ctx, t)
	if errors.Is(err, repository.ErrNotFound) {
		def, ok := DefaultTemplate(t)
		if !ok {
			return nil, apperrors.NotFound("notification template", err)
		}
		tmpl, err = def, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification template: %w", err)
	}

	s.cache.SetDefault(templateKey(t), tmpl)
	return tmpl, nil
}

func (s *Service) preference(ctx context.Context, userID uuid.UUID, t model.NotificationType) (*model.NotificationPreference, error) {
	pref, err := s.preferences.Get(ctx, userID, t)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification preference: %w", err)
	}
	return pref, nil
}

func (s *Service) Notify(ctx context.Context, userID uuid.UUID, t model.NotificationType, data map[string]string, referenceID *uuid.UUID) error {
	tmpl, err := s.Template(ctx, t)
	if err != nil {
		return err
	}

	pref, err := s.preference(ctx, userID, t)
	if err != nil {
		return err
	}

	channel := ResolveForType(t, tmpl.DefaultChannel, pref)
	deliveries := channel.Deliveries()
	if len(deliveries) == 0 {
		s.metrics.NotificationsSuppressed.WithLabelValues(string(t)).Inc()
		s.logger.Debug("notification suppressed", "user_id", userID.String(), "type", string(t))
		return nil
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get notification recipient: %w", err)
	}

	vars := map[string]string{"name": user.Name, "email": user.Email}
	for k, v := range data {
		vars[k] = v
	}
	subject := Render(tmpl.Subject, vars)
	body := Render(tmpl.Body, vars)

	notifications := make([]*model.Notification, 0, len(deliveries))
	events := make([]*model.OutboxEvent, 0, len(deliveries))
	for _, ch := range deliveries {
		n := &model.Notification{
			ID:          uuid.New(),
			UserID:      userID,
			Type:        t,
			Channel:     ch,
			Subject:     subject,
			Body:        body,
			ReferenceID: referenceID,
			Status:      model.NotificationStatusPending,
		}
		if ch == model.ChannelEmail {
			n.Recipient = user.Email
		}

		payload, err := json.Marshal(model.DispatchPayload{NotificationID: n.ID})
		if err != nil {
			return fmt.Errorf("failed to marshal dispatch payload: %w", err)
		}

		notifications = append(notifications, n)
		events = append(events, &model.OutboxEvent{
			EventType: model.EventNotificationDispatch,
			Payload:   payload,
			Status:    model.OutboxStatusPending,
		})
	}

	if err := s.notifications.CreateWithOutbox(ctx, notifications, events); err != nil {
		return fmt.Errorf("failed to queue notification: %w", err)
	}

	for _, n := range notifications {
		s.metrics.NotificationsQueued.WithLabelValues(string(t), string(n.Channel)).Inc()
	}
	return nil
}

// ListTemplates returns one template per known type, stored ones first.
func (s *Service) ListTemplates(ctx context.Context) ([]*model.NotificationTemplate, error) {
	stored, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification templates: %w", err)
	}

	byType := make(map[model.NotificationType]*model.NotificationTemplate, len(stored))
	for _, tmpl := range stored {
		byType[tmpl.Type] = tmpl
	}

	result := make([]*model.NotificationTemplate, 0, len(model.NotificationTypes))
	for _, t := range model.NotificationTypes {
		if tmpl, ok := byType[t]; ok {
			result = append(result, tmpl)
			continue
		}
		if def, ok := DefaultTemplate(t); ok {
			result = append(result, def)
		}
	}
	return result, nil
}

func (s *Service) UpsertTemplate(ctx context.Context, t model.NotificationType, req *model.UpsertTemplateRequest) (*model.NotificationTemplate, error) {
	if !t.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown notification type %q", t), nil)
	}

	tmpl := &model.NotificationTemplate{
		Type:           t,
		Subject:        req.Subject,
		Body:           req.Body,
		DefaultChannel: req.DefaultChannel,
	}
	if err := s.templates.Upsert(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("failed to save notification template: %w", err)
	}

	s.cache.Delete(templateKey(t))
	return tmpl, nil
}

// ListPreferences returns the effective preference for every type; types the
// user never touched come back with both channels enabled.
func (s *Service) ListPreferences(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	stored, err := s.preferences.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notification preferences: %w", err)
	}

	byType := make(map[model.NotificationType]*model.NotificationPreference, len(stored))
	for _, p := range stored {
		byType[p.Type] = p
	}

	result := make([]*model.NotificationPreference, 0, len(model.NotificationTypes))
	for _, t := range model.NotificationTypes {
		if p, ok := byType[t]; ok {
			result = append(result, p)
			continue
		}
		result = append(result, &model.NotificationPreference{
			UserID:      userID,
			Type:        t,
			EnableEmail: true,
			EnableInApp: true,
		})
	}
	return result, nil
}

func (s *Service) UpdatePreference(ctx context.Context, userID uuid.UUID, t model.NotificationType, req *model.UpdatePreferenceRequest) (*model.NotificationPreference, error) {
	if !t.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown notification type %q", t), nil)
	}

	pref := &model.NotificationPreference{
		UserID:      userID,
		Type:        t,
		EnableEmail: *req.EnableEmail,
		EnableInApp: *req.EnableInApp,
	}
	if err := s.preferences.Upsert(ctx, pref); err != nil {
		return nil, fmt.Errorf("failed to save notification preference: %w", err)
	}
	return pref, nil
}

func (s *Service) ListInbox(ctx context.Context, userID uuid.UUID, unreadOnly bool, page model.Pagination) ([]*model.Notification, int, error) {
	page.Normalize()
	items, total, err := s.notifications.List(ctx, &model.NotificationFilters{
		UserID:     userID,
		Channel:    model.ChannelInApp,
		UnreadOnly: unreadOnly,
		Pagination: page,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return items, total, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	err := s.notifications.MarkRead(ctx, id, userID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("notification", err)
	}
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
