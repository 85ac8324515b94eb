package postgres

import (
	"context"
	"time"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type templateRepository struct {
	BaseRepository
}

func NewTemplateRepository(base BaseRepository) repository.TemplateRepository {
	return &templateRepository{base}
}

const templateColumns = `type, subject, body, default_channel, updated_at`

func (r *templateRepository) Get(ctx context.Context, notificationType model.NotificationType) (*model.NotificationTemplate, error) {
	var tmpl model.NotificationTemplate
	query := `SELECT ` + templateColumns + ` FROM notification_templates WHERE type = $1`
	if err := r.db.GetContext(ctx, &tmpl, query, notificationType); err != nil {
		return nil, translate(err, "get notification template")
	}
	return &tmpl, nil
}

func (r *templateRepository) List(ctx context.Context) ([]*model.NotificationTemplate, error) {
	var templates []*model.NotificationTemplate
	if err := r.db.SelectContext(ctx, &templates, `SELECT `+templateColumns+` FROM notification_templates ORDER BY type`); err != nil {
		return nil, translate(err, "list notification templates")
	}
	return templates, nil
}

func (r *templateRepository) Upsert(ctx context.Context, tmpl *model.NotificationTemplate) error {
	query := `
		INSERT INTO notification_templates (` + templateColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (type) DO UPDATE
		SET subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			default_channel = EXCLUDED.default_channel,
			updated_at = EXCLUDED.updated_at
	`
	tmpl.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, tmpl.Type, tmpl.Subject, tmpl.Body, tmpl.DefaultChannel, tmpl.UpdatedAt)
	return translate(err, "upsert notification template")
}
