package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type escrowRow struct {
	ID              uuid.UUID  `db:"id"`
	OrderID         uuid.UUID  `db:"order_id"`
	Amount          float64    `db:"amount"`
	Status          string     `db:"status"`
	SellerConfirmed bool       `db:"seller_confirmed"`
	BuyerConfirmed  bool       `db:"buyer_confirmed"`
	ReleasedAt      *time.Time `db:"released_at"`
	ReleasedBy      *uuid.UUID `db:"released_by"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r escrowRow) toEntity() *entity.Escrow {
	return &entity.Escrow{
		ID:              r.ID,
		OrderID:         r.OrderID,
		Amount:          r.Amount,
		Status:          valueobject.EscrowStatus(r.Status),
		SellerConfirmed: r.SellerConfirmed,
		BuyerConfirmed:  r.BuyerConfirmed,
		ReleasedAt:      r.ReleasedAt,
		ReleasedBy:      r.ReleasedBy,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func escrowRowFrom(e *entity.Escrow) escrowRow {
	return escrowRow{
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

const escrowColumns = `id, order_id, amount, status, seller_confirmed, buyer_confirmed,
	released_at, released_by, created_at, updated_at`

type escrowRepository struct {
	q sqlx.ExtContext
}

func (r *escrowRepository) Create(ctx context.Context, escrow *entity.Escrow) error {
	query := `
		INSERT INTO escrows (` + escrowColumns + `)
		VALUES (:id, :order_id, :amount, :status, :seller_confirmed, :buyer_confirmed,
		        :released_at, :released_by, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, escrowRowFrom(escrow)); err != nil {
		return writeError(err, "не удалось создать escrow")
	}
	return nil
}

func (r *escrowRepository) Update(ctx context.Context, escrow *entity.Escrow) error {
	query := `
		UPDATE escrows
		SET status = :status, seller_confirmed = :seller_confirmed, buyer_confirmed = :buyer_confirmed,
		    released_at = :released_at, released_by = :released_by, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, escrowRowFrom(escrow))
	if err != nil {
		return writeError(err, "не удалось обновить escrow")
	}
	return expectOne(res, apperror.ErrEscrowNotFound, "не удалось обновить escrow")
}

func (r *escrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Escrow, error) {
	return r.get(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE id = $1`, id)
}

func (r *escrowRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Escrow, error) {
	return r.get(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE id = $1 FOR UPDATE`, id)
}

func (r *escrowRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Escrow, error) {
	return r.get(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE order_id = $1`, orderID)
}

func (r *escrowRepository) LockByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Escrow, error) {
	return r.get(ctx, `SELECT `+escrowColumns+` FROM escrows WHERE order_id = $1 FOR UPDATE`, orderID)
}

func (r *escrowRepository) ListByStatus(ctx context.Context, status valueobject.EscrowStatus) ([]*entity.Escrow, error) {
	var rows []escrowRow
	query := `SELECT ` + escrowColumns + ` FROM escrows WHERE status = $1 ORDER BY updated_at`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, string(status)); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список escrow")
	}

	escrows := make([]*entity.Escrow, 0, len(rows))
	for _, row := range rows {
		escrows = append(escrows, row.toEntity())
	}
	return escrows, nil
}

func (r *escrowRepository) get(ctx context.Context, query string, args ...any) (*entity.Escrow, error) {
	var row escrowRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, args...); err != nil {
		return nil, readError(err, apperror.ErrEscrowNotFound, "не удалось получить escrow")
	}
	return row.toEntity(), nil
}

type payoutRepository struct {
	q sqlx.ExtContext
}

type payoutRow struct {
	ID         uuid.UUID `db:"id"`
	OrderID    uuid.UUID `db:"order_id"`
	EscrowID   uuid.UUID `db:"escrow_id"`
	Amount     float64   `db:"amount"`
	SellerID   uuid.UUID `db:"seller_id"`
	BuyerID    uuid.UUID `db:"buyer_id"`
	ReleasedBy uuid.UUID `db:"released_by"`
	ReleasedAt time.Time `db:"released_at"`
	Status     string    `db:"status"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r *payoutRepository) Create(ctx context.Context, p *entity.Payout) error {
	query := `
		INSERT INTO payouts (id, order_id, escrow_id, amount, seller_id, buyer_id, released_by, released_at, status, created_at)
		VALUES (:id, :order_id, :escrow_id, :amount, :seller_id, :buyer_id, :released_by, :released_at, :status, :created_at)
	`
	row := payoutRow{
		ID:         p.ID,
		OrderID:    p.OrderID,
		EscrowID:   p.EscrowID,
		Amount:     p.Amount,
		SellerID:   p.SellerID,
		BuyerID:    p.BuyerID,
		ReleasedBy: p.ReleasedBy,
		ReleasedAt: p.ReleasedAt,
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt,
	}
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, row); err != nil {
		return writeError(err, "не удалось записать выплату")
	}
	return nil
}

func (r *payoutRepository) ListByEscrow(ctx context.Context, escrowID uuid.UUID) ([]*entity.Payout, error) {
	var rows []payoutRow
	query := `
		SELECT id, order_id, escrow_id, amount, seller_id, buyer_id, released_by, released_at, status, created_at
		FROM payouts WHERE escrow_id = $1 ORDER BY created_at
	`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, escrowID); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить выплаты")
	}

	payouts := make([]*entity.Payout, 0, len(rows))
	for _, row := range rows {
		payouts = append(payouts, &entity.Payout{
			ID:         row.ID,
			OrderID:    row.OrderID,
			EscrowID:   row.EscrowID,
			Amount:     row.Amount,
			SellerID:   row.SellerID,
			BuyerID:    row.BuyerID,
			ReleasedBy: row.ReleasedBy,
			ReleasedAt: row.ReleasedAt,
			Status:     valueobject.PayoutStatus(row.Status),
			CreatedAt:  row.CreatedAt,
		})
	}
	return payouts, nil
}

type gigRepository struct {
	q sqlx.ExtContext
}

func (r *gigRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Gig, error) {
	var gig struct {
		ID       uuid.UUID `db:"id"`
		SellerID uuid.UUID `db:"seller_id"`
		Title    string    `db:"title"`
		Price    float64   `db:"price"`
	}
	if err := sqlx.GetContext(ctx, r.q, &gig, `SELECT id, seller_id, title, price FROM gigs WHERE id = $1`, id); err != nil {
		return nil, readError(err, apperror.ErrGigNotFound, "не удалось получить услугу")
	}
	return &entity.Gig{ID: gig.ID, SellerID: gig.SellerID, Title: gig.Title, Price: gig.Price}, nil
}
