package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type Payment struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	GigID            *uuid.UUID
	BuyerID          uuid.UUID
	SellerID         uuid.UUID
	Amount           float64
	Gateway          valueobject.Gateway
	TransactionID    string
	CorrelationToken string
	Status           valueobject.PaymentStatus
	RawPayload       json.RawMessage
	IsConfirmed      bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewPayment(order *Order, gateway valueobject.Gateway, now time.Time) (*Payment, error) {
	if !gateway.IsValid() {
		return nil, apperror.ErrUnknownGateway
	}
	if order.IsPaid != valueobject.PaidStatusPending {
		return nil, apperror.ErrOrderAlreadyPaid
	}

	return &Payment{
		ID:        uuid.New(),
		OrderID:   order.ID,
		GigID:     order.GigID,
		BuyerID:   order.BuyerID,
		SellerID:  order.SellerID,
		Amount:    order.Price,
		Gateway:   gateway,
		Status:    valueobject.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Payment) BindCorrelationToken(token string) error {
	if token == "" {
		return apperror.New(apperror.ErrCodeGateway, "шлюз не вернул идентификатор платежа")
	}
	p.CorrelationToken = token
	return nil
}

func (p *Payment) IsSuccess() bool {
	return p.Status == valueobject.PaymentStatusSuccess
}

// MarkSuccess — единственный переход, открывающий escrow. Выполняется ровно один раз.
func (p *Payment) MarkSuccess(transactionID string, raw json.RawMessage, now time.Time) error {
	if p.Status != valueobject.PaymentStatusPending {
		return apperror.ErrPaymentFinalized
	}
	p.Status = valueobject.PaymentStatusSuccess
	p.TransactionID = transactionID
	p.RawPayload = raw
	p.IsConfirmed = true
	p.UpdatedAt = now
	return nil
}

// MarkRefundDue фиксирует успешное списание по уже оплаченному заказу. Escrow не открывается.
func (p *Payment) MarkRefundDue(transactionID string, raw json.RawMessage, now time.Time) error {
	if p.Status != valueobject.PaymentStatusPending {
		return apperror.ErrPaymentFinalized
	}
	p.Status = valueobject.PaymentStatusRefundDue
	p.TransactionID = transactionID
	p.RawPayload = raw
	p.IsConfirmed = true
	p.UpdatedAt = now
	return nil
}

func (p *Payment) MarkFailed(raw json.RawMessage, now time.Time) error {
	if p.Status != valueobject.PaymentStatusPending {
		return apperror.ErrPaymentFinalized
	}
	p.Status = valueobject.PaymentStatusFailed
	p.RawPayload = raw
	p.UpdatedAt = now
	return nil
}
