package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/validation"
)

const DefaultBidValidity = 30 * 24 * time.Hour

type Bid struct {
	ID           uuid.UUID
	ProjectID    uuid.UUID
	BidderID     uuid.UUID
	Amount       float64
	Proposal     string
	DeliveryDays int
	Attachments  []string
	Status       valueobject.BidStatus
	ValidUntil   time.Time
	SelectedAt   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewBid(projectID, bidderID uuid.UUID, amount float64, proposal string, deliveryDays int, attachments []string, now time.Time) (*Bid, error) {
	if amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма ставки должна быть положительной")
	}
	if err := validation.ValidateBidProposal(proposal); err != nil {
		return nil, err
	}
	if deliveryDays <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок доставки должен быть положительным")
	}
	if err := validation.ValidateAttachments(attachments); err != nil {
		return nil, err
	}
	if attachments == nil {
		attachments = []string{}
	}

	return &Bid{
		ID:           uuid.New(),
		ProjectID:    projectID,
		BidderID:     bidderID,
		Amount:       valueobject.RoundAmount(amount),
		Proposal:     proposal,
		DeliveryDays: deliveryDays,
		Attachments:  attachments,
		Status:       valueobject.BidStatusPending,
		ValidUntil:   now.Add(DefaultBidValidity),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (b *Bid) IsPending() bool {
	return b.Status == valueobject.BidStatusPending
}

func (b *Bid) IsExpired(now time.Time) bool {
	return !now.Before(b.ValidUntil)
}

func (b *Bid) Accept(now time.Time) error {
	if !b.IsPending() {
		return apperror.ErrBidNotPending
	}
	if b.IsExpired(now) {
		return apperror.ErrBidExpired
	}
	b.Status = valueobject.BidStatusAccepted
	b.SelectedAt = &now
	b.UpdatedAt = now
	return nil
}

func (b *Bid) Reject(now time.Time) error {
	return b.transition(valueobject.BidStatusRejected, now)
}

func (b *Bid) Withdraw(now time.Time) error {
	return b.transition(valueobject.BidStatusWithdrawn, now)
}

func (b *Bid) Expire(now time.Time) error {
	return b.transition(valueobject.BidStatusExpired, now)
}

func (b *Bid) transition(to valueobject.BidStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(to) {
		return apperror.ErrBidNotPending
	}
	b.Status = to
	b.UpdatedAt = now
	return nil
}

func (b *Bid) IsOwnedBy(userID uuid.UUID) bool {
	return b.BidderID == userID
}
