package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domain "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/gateway"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
)

type KhaltiConfig struct {
	BaseURL    string
	SecretKey  string
	ReturnURL  string
	WebsiteURL string
	Timeout    time.Duration
}

// Khalti работает по схеме редиректа: initiate возвращает pidx и payment_url, lookup сообщает статус.
type Khalti struct {
	cfg        KhaltiConfig
	httpClient *http.Client
}

func NewKhalti(cfg KhaltiConfig) *Khalti {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Khalti{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (k *Khalti) Name() valueobject.Gateway {
	return valueobject.GatewayKhalti
}

type khaltiInitiateRequest struct {
	ReturnURL         string `json:"return_url"`
	WebsiteURL        string `json:"website_url"`
	Amount            int64  `json:"amount"`
	PurchaseOrderID   string `json:"purchase_order_id"`
	PurchaseOrderName string `json:"purchase_order_name"`
}

type khaltiInitiateResponse struct {
	Pidx       string `json:"pidx"`
	PaymentURL string `json:"payment_url"`
}

type khaltiLookupResponse struct {
	Pidx          string `json:"pidx"`
	TotalAmount   int64  `json:"total_amount"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
}

func (k *Khalti) Initiate(ctx context.Context, req domain.InitiateRequest) (*domain.InitiateResult, error) {
	var out khaltiInitiateResponse
	_, err := k.post(ctx, "/epayment/initiate/", khaltiInitiateRequest{
		ReturnURL:         k.cfg.ReturnURL,
		WebsiteURL:        k.cfg.WebsiteURL,
		Amount:            valueobject.MinorUnits(req.Amount),
		PurchaseOrderID:   req.PaymentID.String(),
		PurchaseOrderName: req.Description,
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Pidx == "" {
		return nil, fmt.Errorf("khalti: ответ без pidx")
	}
	return &domain.InitiateResult{CorrelationToken: out.Pidx, RedirectURL: out.PaymentURL}, nil
}

func (k *Khalti) Verify(ctx context.Context, pidx string) (*domain.VerifyResult, error) {
	var out khaltiLookupResponse
	raw, err := k.post(ctx, "/epayment/lookup/", map[string]string{"pidx": pidx}, &out)
	if err != nil {
		return nil, err
	}
	return &domain.VerifyResult{
		Status:        khaltiStatus(out.Status),
		Amount:        valueobject.FromMinorUnits(out.TotalAmount),
		TransactionID: out.TransactionID,
		Raw:           raw,
	}, nil
}

func khaltiStatus(status string) domain.VerifyStatus {
	switch status {
	case "Completed":
		return domain.VerifySucceeded
	case "Pending", "Initiated":
		return domain.VerifyPending
	default:
		// Expired, User canceled, Refunded, Partially Refunded
		return domain.VerifyFailed
	}
}

func (k *Khalti) post(ctx context.Context, path string, payload, out any) (json.RawMessage, error) {
	if k.cfg.BaseURL == "" {
		return nil, fmt.Errorf("khalti: baseURL не задан")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+k.cfg.SecretKey)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("khalti: код ответа %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("khalti: некорректный ответ: %w", err)
	}
	return raw, nil
}

var _ domain.Gateway = (*Khalti)(nil)
