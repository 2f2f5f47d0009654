package persistence

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// constraintErrors сопоставляет уникальные индексы схемы с доменными ошибками.
var constraintErrors = map[string]error{
	"bids_pending_bidder_uniq":       apperror.ErrDuplicateBid,
	"bids_accepted_project_uniq":     apperror.ErrBidAlreadyAccepted,
	"payments_correlation_token_key": apperror.ErrDuplicatePayment,
	"escrows_order_id_key":           apperror.ErrEscrowExists,
	"payouts_escrow_id_key":          apperror.ErrPayoutExists,
}

// orderReferences — внешние ключи, запрещающие удалять заказ.
var orderReferences = map[string]bool{
	"escrows_order_id_fkey": true,
	"payouts_order_id_fkey": true,
}

// writeError переводит ошибку записи в apperror. Нарушения ограничений становятся
// доменными ошибками, остальное оборачивается как DATABASE_ERROR.
func writeError(err error, message string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pgUniqueViolation:
			if mapped, ok := constraintErrors[pqErr.Constraint]; ok {
				return mapped
			}
			return apperror.Wrap(err, apperror.ErrCodeConflict, message)
		case pgForeignKeyViolation:
			if orderReferences[pqErr.Constraint] {
				return apperror.ErrOrderNotDeletable
			}
		}
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

// readError возвращает notFound для пустой выборки.
func readError(err error, notFound error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}

// expectOne проверяет, что UPDATE/DELETE затронул строку.
func expectOne(res sql.Result, notFound error, message string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
