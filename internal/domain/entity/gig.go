package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Gig — витринная услуга продавца. Здесь только читается.
type Gig struct {
	ID       uuid.UUID
	SellerID uuid.UUID
	Title    string
	Price    float64
}

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Event     string
	Data      json.RawMessage
	IsRead    bool
	CreatedAt time.Time
}
