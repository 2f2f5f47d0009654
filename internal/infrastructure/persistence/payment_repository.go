package persistence

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type paymentRow struct {
	ID               uuid.UUID  `db:"id"`
	OrderID          uuid.UUID  `db:"order_id"`
	GigID            *uuid.UUID `db:"gig_id"`
	BuyerID          uuid.UUID  `db:"buyer_id"`
	SellerID         uuid.UUID  `db:"seller_id"`
	Amount           float64    `db:"amount"`
	Gateway          string     `db:"gateway"`
	TransactionID    string     `db:"transaction_id"`
	CorrelationToken string     `db:"correlation_token"`
	Status           string     `db:"status"`
	RawPayload       []byte     `db:"raw_payload"`
	IsConfirmed      bool       `db:"is_confirmed"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r paymentRow) toEntity() *entity.Payment {
	var raw json.RawMessage
	if len(r.RawPayload) > 0 {
		raw = append(json.RawMessage{}, r.RawPayload...)
	}
	return &entity.Payment{
		ID:               r.ID,
		OrderID:          r.OrderID,
		GigID:            r.GigID,
		BuyerID:          r.BuyerID,
		SellerID:         r.SellerID,
		Amount:           r.Amount,
		Gateway:          valueobject.Gateway(r.Gateway),
		TransactionID:    r.TransactionID,
		CorrelationToken: r.CorrelationToken,
		Status:           valueobject.PaymentStatus(r.Status),
		RawPayload:       raw,
		IsConfirmed:      r.IsConfirmed,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func paymentRowFrom(p *entity.Payment) paymentRow {
	var raw []byte
	if len(p.RawPayload) > 0 {
		raw = []byte(p.RawPayload)
	}
	return paymentRow{
		ID:               p.ID,
		OrderID:          p.OrderID,
		GigID:            p.GigID,
		BuyerID:          p.BuyerID,
		SellerID:         p.SellerID,
		Amount:           p.Amount,
		Gateway:          string(p.Gateway),
		TransactionID:    p.TransactionID,
		CorrelationToken: p.CorrelationToken,
		Status:           string(p.Status),
		RawPayload:       raw,
		IsConfirmed:      p.IsConfirmed,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

const paymentColumns = `id, order_id, gig_id, buyer_id, seller_id, amount, gateway, transaction_id,
	correlation_token, status, raw_payload, is_confirmed, created_at, updated_at`

type paymentRepository struct {
	q sqlx.ExtContext
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (:id, :order_id, :gig_id, :buyer_id, :seller_id, :amount, :gateway, :transaction_id,
		        :correlation_token, :status, :raw_payload, :is_confirmed, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, paymentRowFrom(payment)); err != nil {
		return writeError(err, "не удалось создать платёж")
	}
	return nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.Payment) error {
	query := `
		UPDATE payments
		SET transaction_id = :transaction_id, status = :status, raw_payload = :raw_payload,
		    is_confirmed = :is_confirmed, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, paymentRowFrom(payment))
	if err != nil {
		return writeError(err, "не удалось обновить платёж")
	}
	return expectOne(res, apperror.ErrPaymentNotFound, "не удалось обновить платёж")
}

func (r *paymentRepository) LockByCorrelationToken(ctx context.Context, gateway valueobject.Gateway, token string) (*entity.Payment, error) {
	var row paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway = $1 AND correlation_token = $2 FOR UPDATE`
	if err := sqlx.GetContext(ctx, r.q, &row, query, string(gateway), token); err != nil {
		return nil, readError(err, apperror.ErrPaymentNotFound, "не удалось получить платёж")
	}
	return row.toEntity(), nil
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status valueobject.PaymentStatus) ([]*entity.Payment, error) {
	var rows []paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 ORDER BY updated_at`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, string(status)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список платежей")
	}

	payments := make([]*entity.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.toEntity())
	}
	return payments, nil
}
