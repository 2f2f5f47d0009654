package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
)

type CreateOrderRequest struct {
	GigID         string `json:"gig_id" binding:"required,uuid"`
	PaymentMethod string `json:"payment_method" binding:"required"`
}

type OrderResponse struct {
	ID               uuid.UUID  `json:"id"`
	Origin           string     `json:"origin"`
	GigID            *uuid.UUID `json:"gig_id"`
	ProjectID        *uuid.UUID `json:"project_id"`
	BidID            *uuid.UUID `json:"bid_id"`
	SellerID         uuid.UUID  `json:"seller_id"`
	BuyerID          uuid.UUID  `json:"buyer_id"`
	EscrowID         *uuid.UUID `json:"escrow_id"`
	Price            float64    `json:"price"`
	PaymentMethod    string     `json:"payment_method"`
	IsPaid           string     `json:"is_paid"`
	SellerWorkStatus bool       `json:"seller_work_status"`
	BuyerWorkStatus  bool       `json:"buyer_work_status"`
	OrderStatus      string     `json:"order_status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func ToOrderResponse(o *entity.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		Origin:           string(o.Origin),
		GigID:            o.GigID,
		ProjectID:        o.ProjectID,
		BidID:            o.BidID,
		SellerID:         o.SellerID,
		BuyerID:          o.BuyerID,
		EscrowID:         o.EscrowID,
		Price:            o.Price,
		PaymentMethod:    string(o.PaymentMethod),
		IsPaid:           string(o.IsPaid),
		SellerWorkStatus: o.SellerWorkStatus,
		BuyerWorkStatus:  o.BuyerWorkStatus,
		OrderStatus:      string(o.OrderStatus),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// WorkStatusRequest — подтверждение выполнения работы стороной заказа.
// Указатель нужен, чтобы отличить false от отсутствующего поля.
type WorkStatusRequest struct {
	WorkStatus *bool `json:"work_status" binding:"required"`
}

type WorkStatusResponse struct {
	Order  OrderResponse  `json:"order"`
	Escrow EscrowResponse `json:"escrow"`
}

type EscrowResponse struct {
	ID              uuid.UUID  `json:"id"`
	OrderID         uuid.UUID  `json:"order_id"`
	Amount          float64    `json:"amount"`
	Status          string     `json:"status"`
	SellerConfirmed bool       `json:"seller_confirmed"`
	BuyerConfirmed  bool       `json:"buyer_confirmed"`
	ReleasedAt      *time.Time `json:"released_at"`
	ReleasedBy      *uuid.UUID `json:"released_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func ToEscrowResponse(e *entity.Escrow) EscrowResponse {
	return EscrowResponse{
		ID:              e.ID,
		OrderID:         e.OrderID,
		Amount:          e.Amount,
		Status:          string(e.Status),
		SellerConfirmed: e.SellerConfirmed,
		BuyerConfirmed:  e.BuyerConfirmed,
		ReleasedAt:      e.ReleasedAt,
		ReleasedBy:      e.ReleasedBy,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func ToEscrowResponses(escrows []*entity.Escrow) []EscrowResponse {
	responses := make([]EscrowResponse, 0, len(escrows))
	for _, e := range escrows {
		responses = append(responses, ToEscrowResponse(e))
	}
	return responses
}

type PayoutResponse struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	EscrowID   uuid.UUID `json:"escrow_id"`
	Amount     float64   `json:"amount"`
	SellerID   uuid.UUID `json:"seller_id"`
	BuyerID    uuid.UUID `json:"buyer_id"`
	ReleasedBy uuid.UUID `json:"released_by"`
	ReleasedAt time.Time `json:"released_at"`
	Status     string    `json:"status"`
}

func ToPayoutResponse(p *entity.Payout) PayoutResponse {
	return PayoutResponse{
		ID:         p.ID,
		OrderID:    p.OrderID,
		EscrowID:   p.EscrowID,
		Amount:     p.Amount,
		SellerID:   p.SellerID,
		BuyerID:    p.BuyerID,
		ReleasedBy: p.ReleasedBy,
		ReleasedAt: p.ReleasedAt,
		Status:     string(p.Status),
	}
}

type ReleaseResponse struct {
	Escrow EscrowResponse `json:"escrow"`
	Order  OrderResponse  `json:"order"`
	Payout PayoutResponse `json:"payout"`
}

type NotificationResponse struct {
	ID        uuid.UUID       `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

func ToNotificationResponses(items []*entity.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		data := n.Data
		if len(data) == 0 {
			data = json.RawMessage("null")
		}
		responses = append(responses, NotificationResponse{
			ID:        n.ID,
			Event:     n.Event,
			Data:      data,
			IsRead:    n.IsRead,
			CreatedAt: n.CreatedAt,
		})
	}
	return responses
}
