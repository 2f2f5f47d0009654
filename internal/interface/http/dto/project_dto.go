package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
)

type CreateProjectRequest struct {
	Title                string   `json:"title" binding:"required"`
	Description          string   `json:"description" binding:"required"`
	BudgetMin            float64  `json:"budget_min" binding:"gte=0"`
	BudgetMax            float64  `json:"budget_max" binding:"required,gt=0"`
	Category             string   `json:"category"`
	ExpectedDurationDays int      `json:"expected_duration_days" binding:"gte=0"`
	Attachments          []string `json:"attachments"`
	ExpiresAt            *string  `json:"expires_at"`
}

type ProjectResponse struct {
	ID                   uuid.UUID  `json:"id"`
	ClientID             uuid.UUID  `json:"client_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	BudgetMin            float64    `json:"budget_min"`
	BudgetMax            float64    `json:"budget_max"`
	Category             string     `json:"category"`
	ExpectedDurationDays int        `json:"expected_duration_days"`
	Attachments          []string   `json:"attachments"`
	Status               string     `json:"status"`
	SelectedBidID        *uuid.UUID `json:"selected_bid_id"`
	ExpiresAt            time.Time  `json:"expires_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func ToProjectResponse(p *entity.Project) ProjectResponse {
	return ProjectResponse{
		ID:                   p.ID,
		ClientID:             p.ClientID,
		Title:                p.Title,
		Description:          p.Description,
		BudgetMin:            p.Budget.Min.Amount,
		BudgetMax:            p.Budget.Max.Amount,
		Category:             p.Category,
		ExpectedDurationDays: p.ExpectedDurationDays,
		Attachments:          nonNilStrings(p.Attachments),
		Status:               string(p.Status),
		SelectedBidID:        p.SelectedBidID,
		ExpiresAt:            p.ExpiresAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

type SubmitBidRequest struct {
	Amount       float64  `json:"amount" binding:"required,gt=0"`
	Proposal     string   `json:"proposal" binding:"required"`
	DeliveryDays int      `json:"delivery_days" binding:"required,gt=0"`
	Attachments  []string `json:"attachments"`
}

type BidResponse struct {
	ID           uuid.UUID  `json:"id"`
	ProjectID    uuid.UUID  `json:"project_id"`
	BidderID     uuid.UUID  `json:"bidder_id"`
	Amount       float64    `json:"amount"`
	Proposal     string     `json:"proposal"`
	DeliveryDays int        `json:"delivery_days"`
	Attachments  []string   `json:"attachments"`
	Status       string     `json:"status"`
	ValidUntil   time.Time  `json:"valid_until"`
	SelectedAt   *time.Time `json:"selected_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func ToBidResponse(b *entity.Bid) BidResponse {
	return BidResponse{
		ID:           b.ID,
		ProjectID:    b.ProjectID,
		BidderID:     b.BidderID,
		Amount:       b.Amount,
		Proposal:     b.Proposal,
		DeliveryDays: b.DeliveryDays,
		Attachments:  nonNilStrings(b.Attachments),
		Status:       string(b.Status),
		ValidUntil:   b.ValidUntil,
		SelectedAt:   b.SelectedAt,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func ToBidResponses(bids []*entity.Bid) []BidResponse {
	responses := make([]BidResponse, 0, len(bids))
	for _, b := range bids {
		responses = append(responses, ToBidResponse(b))
	}
	return responses
}

// AwardResponse — результат выбора ставки: проект, ставка, заказ и escrow.
type AwardResponse struct {
	Project ProjectResponse `json:"project"`
	Bid     BidResponse     `json:"bid"`
	Order   OrderResponse   `json:"order"`
	Escrow  EscrowResponse  `json:"escrow"`
}

func ParseTime(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
