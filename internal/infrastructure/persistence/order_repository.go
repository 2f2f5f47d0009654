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

type orderRow struct {
	ID               uuid.UUID  `db:"id"`
	Origin           string     `db:"origin"`
	GigID            *uuid.UUID `db:"gig_id"`
	ProjectID        *uuid.UUID `db:"project_id"`
	BidID            *uuid.UUID `db:"bid_id"`
	SellerID         uuid.UUID  `db:"seller_id"`
	BuyerID          uuid.UUID  `db:"buyer_id"`
	EscrowID         *uuid.UUID `db:"escrow_id"`
	Price            float64    `db:"price"`
	PaymentMethod    string     `db:"payment_method"`
	IsPaid           string     `db:"is_paid"`
	SellerWorkStatus bool       `db:"seller_work_status"`
	BuyerWorkStatus  bool       `db:"buyer_work_status"`
	OrderStatus      string     `db:"order_status"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r orderRow) toEntity() *entity.Order {
	return &entity.Order{
		ID:               r.ID,
		Origin:           valueobject.OrderOrigin(r.Origin),
		GigID:            r.GigID,
		ProjectID:        r.ProjectID,
		BidID:            r.BidID,
		SellerID:         r.SellerID,
		BuyerID:          r.BuyerID,
		EscrowID:         r.EscrowID,
		Price:            r.Price,
		PaymentMethod:    valueobject.Gateway(r.PaymentMethod),
		IsPaid:           valueobject.PaidStatus(r.IsPaid),
		SellerWorkStatus: r.SellerWorkStatus,
		BuyerWorkStatus:  r.BuyerWorkStatus,
		OrderStatus:      valueobject.OrderStatus(r.OrderStatus),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func orderRowFrom(o *entity.Order) orderRow {
	return orderRow{
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

const orderColumns = `id, origin, gig_id, project_id, bid_id, seller_id, buyer_id, escrow_id, price,
	payment_method, is_paid, seller_work_status, buyer_work_status, order_status, created_at, updated_at`

type orderRepository struct {
	q sqlx.ExtContext
}

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES (:id, :origin, :gig_id, :project_id, :bid_id, :seller_id, :buyer_id, :escrow_id, :price,
		        :payment_method, :is_paid, :seller_work_status, :buyer_work_status, :order_status, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, orderRowFrom(order)); err != nil {
		return writeError(err, "не удалось создать заказ")
	}
	return nil
}

func (r *orderRepository) Update(ctx context.Context, order *entity.Order) error {
	query := `
		UPDATE orders
		SET escrow_id = :escrow_id, payment_method = :payment_method, is_paid = :is_paid,
		    seller_work_status = :seller_work_status, buyer_work_status = :buyer_work_status,
		    order_status = :order_status, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, orderRowFrom(order))
	if err != nil {
		return writeError(err, "не удалось обновить заказ")
	}
	return expectOne(res, apperror.ErrOrderNotFound, "не удалось обновить заказ")
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return writeError(err, "не удалось удалить заказ")
	}
	return expectOne(res, apperror.ErrOrderNotFound, "не удалось проверить результат удаления")
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *orderRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *orderRepository) get(ctx context.Context, query string, args ...any) (*entity.Order, error) {
	var row orderRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, args...); err != nil {
		return nil, readError(err, apperror.ErrOrderNotFound, "не удалось получить заказ")
	}
	return row.toEntity(), nil
}
