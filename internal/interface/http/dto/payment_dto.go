package dto

import (
	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
)

type CheckoutRequest struct {
	Gateway string `json:"gateway" binding:"required"`
}

type CheckoutResponse struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	CorrelationToken string    `json:"correlation_token"`
	RedirectURL      string    `json:"redirect_url,omitempty"`
	ClientSecret     string    `json:"client_secret,omitempty"`
}

type VerifyPaymentRequest struct {
	Gateway          string `json:"gateway" binding:"required"`
	CorrelationToken string `json:"correlation_token" binding:"required"`
}

type PaymentResponse struct {
	ID               uuid.UUID `json:"id"`
	OrderID          uuid.UUID `json:"order_id"`
	Amount           float64   `json:"amount"`
	Gateway          string    `json:"gateway"`
	TransactionID    string    `json:"transaction_id"`
	CorrelationToken string    `json:"correlation_token"`
	Status           string    `json:"status"`
	IsConfirmed      bool      `json:"is_confirmed"`
}

func ToPaymentResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Amount:           p.Amount,
		Gateway:          string(p.Gateway),
		TransactionID:    p.TransactionID,
		CorrelationToken: p.CorrelationToken,
		Status:           string(p.Status),
		IsConfirmed:      p.IsConfirmed,
	}
}

func ToPaymentResponses(payments []*entity.Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, ToPaymentResponse(p))
	}
	return out
}

type VerifyPaymentResponse struct {
	Payment          PaymentResponse `json:"payment"`
	Escrow           *EscrowResponse `json:"escrow,omitempty"`
	AlreadyProcessed bool            `json:"already_processed"`
}

func ToVerifyPaymentResponse(payment *entity.Payment, escrow *entity.Escrow, alreadyProcessed bool) VerifyPaymentResponse {
	resp := VerifyPaymentResponse{
		Payment:          ToPaymentResponse(payment),
		AlreadyProcessed: alreadyProcessed,
	}
	if escrow != nil {
		e := ToEscrowResponse(escrow)
		resp.Escrow = &e
	}
	return resp
}
