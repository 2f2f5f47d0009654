package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type bidRow struct {
	ID           uuid.UUID      `db:"id"`
	ProjectID    uuid.UUID      `db:"project_id"`
	BidderID     uuid.UUID      `db:"bidder_id"`
	Amount       float64        `db:"amount"`
	Proposal     string         `db:"proposal"`
	DeliveryDays int            `db:"delivery_days"`
	Attachments  pq.StringArray `db:"attachments"`
	Status       string         `db:"status"`
	ValidUntil   time.Time      `db:"valid_until"`
	SelectedAt   *time.Time     `db:"selected_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r bidRow) toEntity() *entity.Bid {
	return &entity.Bid{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		BidderID:     r.BidderID,
		Amount:       r.Amount,
		Proposal:     r.Proposal,
		DeliveryDays: r.DeliveryDays,
		Attachments:  []string(r.Attachments),
		Status:       valueobject.BidStatus(r.Status),
		ValidUntil:   r.ValidUntil,
		SelectedAt:   r.SelectedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func bidRowFrom(b *entity.Bid) bidRow {
	return bidRow{
		ID:           b.ID,
		ProjectID:    b.ProjectID,
		BidderID:     b.BidderID,
		Amount:       b.Amount,
		Proposal:     b.Proposal,
		DeliveryDays: b.DeliveryDays,
		Attachments:  pq.StringArray(nonNil(b.Attachments)),
		Status:       string(b.Status),
		ValidUntil:   b.ValidUntil,
		SelectedAt:   b.SelectedAt,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

const bidColumns = `id, project_id, bidder_id, amount, proposal, delivery_days, attachments,
	status, valid_until, selected_at, created_at, updated_at`

type bidRepository struct {
	q sqlx.ExtContext
}

func (r *bidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	query := `
		INSERT INTO bids (` + bidColumns + `)
		VALUES (:id, :project_id, :bidder_id, :amount, :proposal, :delivery_days, :attachments,
		        :status, :valid_until, :selected_at, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, bidRowFrom(bid)); err != nil {
		return writeError(err, "не удалось создать ставку")
	}
	return nil
}

func (r *bidRepository) Update(ctx context.Context, bid *entity.Bid) error {
	query := `
		UPDATE bids
		SET status = :status, selected_at = :selected_at, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, bidRowFrom(bid))
	if err != nil {
		return writeError(err, "не удалось обновить ставку")
	}
	return expectOne(res, apperror.ErrBidNotFound, "не удалось обновить ставку")
}

func (r *bidRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error) {
	var row bidRow
	err := sqlx.GetContext(ctx, r.q, &row, `SELECT `+bidColumns+` FROM bids WHERE id = $1`, id)
	if err != nil {
		return nil, readError(err, apperror.ErrBidNotFound, "не удалось получить ставку")
	}
	return row.toEntity(), nil
}

func (r *bidRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*entity.Bid, error) {
	var rows []bidRow
	query := `SELECT ` + bidColumns + ` FROM bids WHERE project_id = $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, projectID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить ставки")
	}

	bids := make([]*entity.Bid, 0, len(rows))
	for _, row := range rows {
		bids = append(bids, row.toEntity())
	}
	return bids, nil
}

func (r *bidRepository) FindPendingByBidder(ctx context.Context, projectID, bidderID uuid.UUID) (*entity.Bid, error) {
	var row bidRow
	query := `SELECT ` + bidColumns + ` FROM bids WHERE project_id = $1 AND bidder_id = $2 AND status = 'pending'`
	err := sqlx.GetContext(ctx, r.q, &row, query, projectID, bidderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить ставку")
	}
	return row.toEntity(), nil
}

func (r *bidRepository) HasAccepted(ctx context.Context, projectID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM bids WHERE project_id = $1 AND status = 'accepted')`
	if err := sqlx.GetContext(ctx, r.q, &exists, query, projectID); err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить ставки")
	}
	return exists, nil
}

func (r *bidRepository) RejectPendingExcept(ctx context.Context, projectID, keepBidID uuid.UUID, at time.Time) (int, error) {
	query := `
		UPDATE bids SET status = 'rejected', updated_at = $3
		WHERE project_id = $1 AND id <> $2 AND status = 'pending'
	`
	return r.execCount(ctx, "не удалось отклонить ставки", query, projectID, keepBidID, at)
}

func (r *bidRepository) ExpireStale(ctx context.Context, at time.Time) (int, error) {
	query := `UPDATE bids SET status = 'expired', updated_at = $1 WHERE status = 'pending' AND valid_until <= $1`
	return r.execCount(ctx, "не удалось пометить просроченные ставки", query, at)
}

func (r *bidRepository) execCount(ctx context.Context, message, query string, args ...any) (int, error) {
	res, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, writeError(err, message)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
	}
	return int(n), nil
}
