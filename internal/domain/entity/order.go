package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

// Party — сторона заказа, подтверждающая работу.
type Party string

const (
	PartySeller Party = "seller"
	PartyBuyer  Party = "buyer"
)

type Order struct {
	ID               uuid.UUID
	Origin           valueobject.OrderOrigin
	GigID            *uuid.UUID
	ProjectID        *uuid.UUID
	BidID            *uuid.UUID
	SellerID         uuid.UUID
	BuyerID          uuid.UUID
	EscrowID         *uuid.UUID
	Price            float64
	PaymentMethod    valueobject.Gateway
	IsPaid           valueobject.PaidStatus
	SellerWorkStatus bool
	BuyerWorkStatus  bool
	OrderStatus      valueobject.OrderStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewGigOrder(gig *Gig, buyerID uuid.UUID, paymentMethod valueobject.Gateway, now time.Time) (*Order, error) {
	if gig.SellerID == buyerID {
		return nil, apperror.ErrSelfPurchase
	}
	if gig.Price <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "цена услуги должна быть положительной")
	}
	if !paymentMethod.IsValid() {
		return nil, apperror.ErrUnknownGateway
	}

	gigID := gig.ID
	return &Order{
		ID:            uuid.New(),
		Origin:        valueobject.OrderOriginGig,
		GigID:         &gigID,
		SellerID:      gig.SellerID,
		BuyerID:       buyerID,
		Price:         valueobject.RoundAmount(gig.Price),
		PaymentMethod: paymentMethod,
		IsPaid:        valueobject.PaidStatusPending,
		OrderStatus:   valueobject.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// NewBidOrder создаёт заказ по принятой ставке: покупатель — клиент проекта, продавец — автор ставки.
func NewBidOrder(project *Project, bid *Bid, now time.Time) (*Order, error) {
	if bid.Status != valueobject.BidStatusAccepted {
		return nil, apperror.ErrBidNotPending
	}
	if bid.ProjectID != project.ID {
		return nil, apperror.ErrBidProjectMismatch
	}

	projectID, bidID := project.ID, bid.ID
	return &Order{
		ID:            uuid.New(),
		Origin:        valueobject.OrderOriginBid,
		ProjectID:     &projectID,
		BidID:         &bidID,
		SellerID:      bid.BidderID,
		BuyerID:       project.ClientID,
		Price:         bid.Amount,
		PaymentMethod: valueobject.GatewayStripe,
		IsPaid:        valueobject.PaidStatusPending,
		OrderStatus:   valueobject.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// PartyOf определяет роль пользователя в заказе.
func (o *Order) PartyOf(userID uuid.UUID) (Party, bool) {
	switch userID {
	case o.SellerID:
		return PartySeller, true
	case o.BuyerID:
		return PartyBuyer, true
	}
	return "", false
}

func (o *Order) IsParty(userID uuid.UUID) bool {
	_, ok := o.PartyOf(userID)
	return ok
}

func (o *Order) IsPaidCompleted() bool {
	return o.IsPaid == valueobject.PaidStatusCompleted
}

func (o *Order) ChoosePaymentMethod(gateway valueobject.Gateway, now time.Time) error {
	if !gateway.IsValid() {
		return apperror.ErrUnknownGateway
	}
	if o.IsPaid != valueobject.PaidStatusPending {
		return apperror.ErrOrderAlreadyPaid
	}
	o.PaymentMethod = gateway
	o.UpdatedAt = now
	return nil
}

// AttachEscrow связывает заказ с escrow до оплаты (путь через ставку).
func (o *Order) AttachEscrow(escrowID uuid.UUID, now time.Time) error {
	if o.EscrowID != nil {
		return apperror.ErrEscrowExists
	}
	o.EscrowID = &escrowID
	o.UpdatedAt = now
	return nil
}

// MarkPaid фиксирует оплату. Для заказа по ставке escrowID должен совпадать с уже привязанным.
func (o *Order) MarkPaid(escrowID uuid.UUID, now time.Time) error {
	if o.IsPaid != valueobject.PaidStatusPending {
		return apperror.ErrOrderAlreadyPaid
	}
	if o.EscrowID != nil && *o.EscrowID != escrowID {
		return apperror.ErrEscrowExists
	}
	o.EscrowID = &escrowID
	o.IsPaid = valueobject.PaidStatusCompleted
	o.OrderStatus = valueobject.OrderStatusPending
	o.UpdatedAt = now
	return nil
}

// SetWorkStatus выставляет флаг выполнения работы для стороны. Обе стороны требуют оплаченного заказа.
func (o *Order) SetWorkStatus(party Party, done bool, now time.Time) error {
	if !o.IsPaidCompleted() {
		return apperror.ErrOrderNotPaid
	}
	if o.OrderStatus.IsTerminal() {
		return apperror.ErrInvalidTransition
	}

	switch party {
	case PartySeller:
		o.SellerWorkStatus = done
	case PartyBuyer:
		o.BuyerWorkStatus = done
	default:
		return apperror.ErrNotOrderParty
	}

	if done {
		o.OrderStatus = valueobject.OrderStatusInProgress
	} else {
		o.OrderStatus = valueobject.OrderStatusPending
	}
	o.UpdatedAt = now
	return nil
}

func (o *Order) Complete(now time.Time) error {
	if o.OrderStatus.IsTerminal() {
		return apperror.ErrInvalidTransition
	}
	o.OrderStatus = valueobject.OrderStatusCompleted
	o.UpdatedAt = now
	return nil
}

func (o *Order) MarkRefunded(now time.Time) error {
	if o.OrderStatus.IsTerminal() {
		return apperror.ErrInvalidTransition
	}
	o.IsPaid = valueobject.PaidStatusRefunded
	o.OrderStatus = valueobject.OrderStatusCancelled
	o.UpdatedAt = now
	return nil
}

// EnsureDeletableBy: удалить можно только неоплаченный заказ без escrow и только покупателю.
func (o *Order) EnsureDeletableBy(userID uuid.UUID) error {
	if o.BuyerID != userID {
		return apperror.ErrNotOrderBuyer
	}
	if o.IsPaid != valueobject.PaidStatusPending || o.EscrowID != nil {
		return apperror.ErrOrderNotDeletable
	}
	return nil
}
