// Package persistence реализует репозитории поверх PostgreSQL (sqlx + lib/pq).
package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
)

// UnitOfWork открывает транзакцию на каждый вызов Do.
type UnitOfWork struct {
	db *sqlx.DB
}

func NewUnitOfWork(db *sqlx.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return withTransaction(ctx, u.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &sqlTx{q: tx})
	})
}

// withTransaction выполняет fn внутри транзакции: ошибка или паника откатывают её.
func withTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type sqlTx struct {
	q sqlx.ExtContext
}

func (t *sqlTx) Projects() repository.ProjectRepository { return &projectRepository{q: t.q} }
func (t *sqlTx) Bids() repository.BidRepository         { return &bidRepository{q: t.q} }
func (t *sqlTx) Orders() repository.OrderRepository     { return &orderRepository{q: t.q} }
func (t *sqlTx) Payments() repository.PaymentRepository { return &paymentRepository{q: t.q} }
func (t *sqlTx) Escrows() repository.EscrowRepository   { return &escrowRepository{q: t.q} }
func (t *sqlTx) Payouts() repository.PayoutRepository   { return &payoutRepository{q: t.q} }
func (t *sqlTx) Gigs() repository.GigRepository         { return &gigRepository{q: t.q} }

var _ repository.UnitOfWork = (*UnitOfWork)(nil)
