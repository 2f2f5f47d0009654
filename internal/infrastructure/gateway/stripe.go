package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	domain "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

// intentAPI — подмножество клиента PaymentIntents, которым пользуется адаптер.
type intentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// Stripe работает через PaymentIntent: клиент подтверждает оплату по client_secret.
type Stripe struct {
	intents       intentAPI
	currency      string
	webhookSecret string
}

func NewStripe(cfg StripeConfig) *Stripe {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return newStripe(sc.PaymentIntents, cfg)
}

func newStripe(intents intentAPI, cfg StripeConfig) *Stripe {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &Stripe{intents: intents, currency: currency, webhookSecret: cfg.WebhookSecret}
}

func (s *Stripe) Name() valueobject.Gateway {
	return valueobject.GatewayStripe
}

func (s *Stripe) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.InitiateResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(valueobject.MinorUnits(req.Amount)),
		Currency:    stripe.String(s.currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", req.OrderID.String())
	params.AddMetadata("payment_id", req.PaymentID.String())

	intent, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: создание PaymentIntent: %w", err)
	}
	return &domain.InitiateResult{CorrelationToken: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

func (s *Stripe) Verify(ctx context.Context, intentID string) (*domain.VerifyResult, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := s.intents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: получение PaymentIntent: %w", err)
	}

	raw, err := json.Marshal(intent)
	if err != nil {
		return nil, err
	}

	txnID := intent.ID
	if intent.LatestCharge != nil && intent.LatestCharge.ID != "" {
		txnID = intent.LatestCharge.ID
	}

	return &domain.VerifyResult{
		Status:        stripeStatus(intent.Status),
		Amount:        valueobject.FromMinorUnits(intent.Amount),
		TransactionID: txnID,
		Raw:           raw,
	}, nil
}

func stripeStatus(status stripe.PaymentIntentStatus) domain.VerifyStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return domain.VerifySucceeded
	case stripe.PaymentIntentStatusCanceled:
		return domain.VerifyFailed
	default:
		// processing, requires_payment_method, requires_confirmation, requires_action, requires_capture
		return domain.VerifyPending
	}
}

// WebhookEvent — событие Stripe, относящееся к PaymentIntent.
type WebhookEvent struct {
	ID               string
	Type             string
	CorrelationToken string
}

// ErrWebhookDisabled — webhook секрет не задан, приём событий выключен.
var ErrWebhookDisabled = apperror.New(apperror.ErrCodeNotFound, "Stripe webhooks are not configured")

const (
	stripeEventSucceeded = "payment_intent.succeeded"
	stripeEventFailed    = "payment_intent.payment_failed"
)

// ParseWebhook проверяет подпись и извлекает id PaymentIntent. Relevant=false для прочих типов событий.
func (s *Stripe) ParseWebhook(payload []byte, signature string) (WebhookEvent, bool, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookEvent{}, false, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "invalid webhook signature")
	}

	out := WebhookEvent{ID: evt.ID, Type: string(evt.Type)}
	if out.Type != stripeEventSucceeded && out.Type != stripeEventFailed {
		return out, false, nil
	}
	if evt.Data == nil {
		return out, false, apperror.New(apperror.ErrCodeBadRequest, "webhook event without data")
	}

	var intent struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(evt.Data.Raw, &intent); err != nil || intent.ID == "" {
		return out, false, apperror.New(apperror.ErrCodeBadRequest, "webhook event without payment intent id")
	}
	out.CorrelationToken = intent.ID
	return out, true, nil
}

var _ domain.Gateway = (*Stripe)(nil)
