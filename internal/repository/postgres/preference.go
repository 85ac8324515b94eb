package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type preferenceRepository struct {
	BaseRepository
}

func NewPreferenceRepository(base BaseRepository) repository.PreferenceRepository {
	return &preferenceRepository{base}
}

const preferenceColumns = `user_id, type, enable_email, enable_in_app, updated_at`

func (r *preferenceRepository) Get(ctx context.Context, userID uuid.UUID, notificationType model.NotificationType) (*model.NotificationPreference, error) {
	var pref model.NotificationPreference
	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1 AND type = $2`
	if err := r.db.GetContext(ctx, &pref, query, userID, notificationType); err != nil {
		return nil, translate(err, "get notification preference")
	}
	return &pref, nil
}

func (r *preferenceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	var prefs []*model.NotificationPreference
	query := `SELECT ` + preferenceColumns + ` FROM notification_preferences WHERE user_id = $1 ORDER BY type`
	if err := r.db.SelectContext(ctx, &prefs, query, userID); err != nil {
		return nil, translate(err, "list notification preferences")
	}
	return prefs, nil
}

func (r *preferenceRepository) Upsert(ctx context.Context, pref *model.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (` + preferenceColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, type) DO UPDATE
		SET enable_email = EXCLUDED.enable_email,
			enable_in_app = EXCLUDED.enable_in_app,
			updated_at = EXCLUDED.updated_at
	`
	pref.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query, pref.UserID, pref.Type, pref.EnableEmail, pref.EnableInApp, pref.UpdatedAt)
	return translate(err, "upsert notification preference")
}
