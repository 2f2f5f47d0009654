package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

// Payout — неизменяемая запись о выплате по escrow.
type Payout struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	EscrowID   uuid.UUID
	Amount     float64
	SellerID   uuid.UUID
	BuyerID    uuid.UUID
	ReleasedBy uuid.UUID
	ReleasedAt time.Time
	Status     valueobject.PayoutStatus
	CreatedAt  time.Time
}

func NewPayout(escrow *Escrow, order *Order) (*Payout, error) {
	if escrow.Status != valueobject.EscrowStatusReleased || escrow.ReleasedAt == nil || escrow.ReleasedBy == nil {
		return nil, apperror.ErrEscrowNotReleasable
	}
	if escrow.OrderID != order.ID {
		return nil, apperror.New(apperror.ErrCodeIntegrity, "escrow не относится к заказу")
	}

	return &Payout{
		ID:         uuid.New(),
		OrderID:    order.ID,
		EscrowID:   escrow.ID,
		Amount:     escrow.Amount,
		SellerID:   order.SellerID,
		BuyerID:    order.BuyerID,
		ReleasedBy: *escrow.ReleasedBy,
		ReleasedAt: *escrow.ReleasedAt,
		Status:     valueobject.PayoutStatusCompleted,
		CreatedAt:  *escrow.ReleasedAt,
	}, nil
}
