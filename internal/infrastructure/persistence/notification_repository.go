package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

// NotificationRepository хранит копии событий, отправленных пользователю по websocket.
// Пишет вне транзакций use case, поэтому работает напрямую с пулом.
type NotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

type notificationPayload struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	payload, err := json.Marshal(notificationPayload{Event: n.Event, Data: n.Data})
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать уведомление")
	}

	query := `INSERT INTO notifications (id, user_id, payload, is_read, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, payload, n.IsRead, n.CreatedAt); err != nil {
		return writeError(err, "не удалось создать уведомление")
	}
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []struct {
		ID        uuid.UUID `db:"id"`
		UserID    uuid.UUID `db:"user_id"`
		Payload   []byte    `db:"payload"`
		IsRead    bool      `db:"is_read"`
		CreatedAt time.Time `db:"created_at"`
	}
	query := `
		SELECT id, user_id, payload, is_read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить уведомления")
	}

	result := make([]*entity.Notification, 0, len(rows))
	for _, row := range rows {
		var payload notificationPayload
		if err := json.Unmarshal(row.Payload, &payload); err != nil {
			continue
		}
		result = append(result, &entity.Notification{
			ID:        row.ID,
			UserID:    row.UserID,
			Event:     payload.Event,
			Data:      payload.Data,
			IsRead:    row.IsRead,
			CreatedAt: row.CreatedAt,
		})
	}
	return result, nil
}
