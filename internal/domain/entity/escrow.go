package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type Escrow struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Amount          float64
	Status          valueobject.EscrowStatus
	SellerConfirmed bool
	BuyerConfirmed  bool
	ReleasedAt      *time.Time
	ReleasedBy      *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewHoldingEscrow открывает escrow после успешной оплаты.
func NewHoldingEscrow(orderID uuid.UUID, amount float64, now time.Time) *Escrow {
	return newEscrow(orderID, amount, valueobject.EscrowStatusHolding, now)
}

// NewPendingEscrow резервирует escrow при выборе ставки; средства ещё не поступили.
func NewPendingEscrow(orderID uuid.UUID, amount float64, now time.Time) *Escrow {
	return newEscrow(orderID, amount, valueobject.EscrowStatusNotInitiated, now)
}

func newEscrow(orderID uuid.UUID, amount float64, status valueobject.EscrowStatus, now time.Time) *Escrow {
	return &Escrow{
		ID:        uuid.New(),
		OrderID:   orderID,
		Amount:    valueobject.RoundAmount(amount),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Activate переводит зарезервированный escrow в holding при поступлении оплаты.
func (e *Escrow) Activate(now time.Time) error {
	if e.Status != valueobject.EscrowStatusNotInitiated {
		return apperror.ErrEscrowExists
	}
	e.Status = valueobject.EscrowStatusHolding
	e.UpdatedAt = now
	return nil
}

// Confirm записывает подтверждение стороны. Когда подтвердили обе, escrow ждёт выплаты.
func (e *Escrow) Confirm(party Party, confirmed bool, now time.Time) error {
	switch e.Status {
	case valueobject.EscrowStatusHolding:
	case valueobject.EscrowStatusWaitingToRelease, valueobject.EscrowStatusReleased:
		if confirmed {
			return nil
		}
		return apperror.ErrEscrowLocked
	default:
		return apperror.ErrInvalidTransition
	}

	switch party {
	case PartySeller:
		e.SellerConfirmed = confirmed
	case PartyBuyer:
		e.BuyerConfirmed = confirmed
	default:
		return apperror.ErrNotOrderParty
	}

	if e.SellerConfirmed && e.BuyerConfirmed {
		e.Status = valueobject.EscrowStatusWaitingToRelease
	}
	e.UpdatedAt = now
	return nil
}

func (e *Escrow) IsReleasable() bool {
	return e.Status == valueobject.EscrowStatusWaitingToRelease
}

func (e *Escrow) Release(adminID uuid.UUID, now time.Time) error {
	if !e.IsReleasable() {
		return apperror.ErrEscrowNotReleasable
	}
	e.Status = valueobject.EscrowStatusReleased
	e.ReleasedAt = &now
	e.ReleasedBy = &adminID
	e.UpdatedAt = now
	return nil
}

func (e *Escrow) Refund(now time.Time) error {
	if !e.Status.CanTransitionTo(valueobject.EscrowStatusRefunded) {
		return apperror.ErrEscrowNotRefundable
	}
	e.Status = valueobject.EscrowStatusRefunded
	e.UpdatedAt = now
	return nil
}
