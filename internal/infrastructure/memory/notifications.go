package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
)

type NotificationRepository struct {
	mu    sync.RWMutex
	items []entity.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{}
}

func (r *NotificationRepository) Create(_ context.Context, n *entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, *n)
	return nil
}

func (r *NotificationRepository) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entity.Notification, 0)
	for i := range r.items {
		if r.items[i].UserID == userID {
			n := r.items[i]
			result = append(result, &n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
