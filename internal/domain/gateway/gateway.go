package gateway

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
)

type VerifyStatus string

const (
	VerifySucceeded VerifyStatus = "succeeded"
	VerifyPending   VerifyStatus = "pending"
	VerifyFailed    VerifyStatus = "failed"
)

type InitiateRequest struct {
	PaymentID   uuid.UUID
	OrderID     uuid.UUID
	Amount      float64
	Description string
}

// InitiateResult содержит токен корреляции и либо URL редиректа, либо client secret.
type InitiateResult struct {
	CorrelationToken string
	RedirectURL      string
	ClientSecret     string
}

type VerifyResult struct {
	Status        VerifyStatus
	Amount        float64
	TransactionID string
	Raw           json.RawMessage
}

// Gateway нормализует протокол платёжного провайдера.
type Gateway interface {
	Name() valueobject.Gateway
	Initiate(ctx context.Context, req InitiateRequest) (*InitiateResult, error)
	Verify(ctx context.Context, correlationToken string) (*VerifyResult, error)
}

type Resolver interface {
	Get(name valueobject.Gateway) (Gateway, error)
}
