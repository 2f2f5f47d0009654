package persistence

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

func TestWriteError_UniqueViolations(t *testing.T) {
	cases := map[string]error{
		"bids_pending_bidder_uniq":       apperror.ErrDuplicateBid,
		"bids_accepted_project_uniq":     apperror.ErrBidAlreadyAccepted,
		"payments_correlation_token_key": apperror.ErrDuplicatePayment,
		"escrows_order_id_key":           apperror.ErrEscrowExists,
		"payouts_escrow_id_key":          apperror.ErrPayoutExists,
	}

	for constraint, want := range cases {
		t.Run(constraint, func(t *testing.T) {
			err := writeError(&pq.Error{Code: "23505", Constraint: constraint}, "insert")
			assert.True(t, errors.Is(err, want))
		})
	}

	err := writeError(&pq.Error{Code: "23505", Constraint: "unknown_key"}, "insert")
	assert.True(t, apperror.IsConflict(err))
}

func TestWriteError_ForeignKeyOnOrderDelete(t *testing.T) {
	err := writeError(&pq.Error{Code: "23503", Constraint: "escrows_order_id_fkey"}, "delete")
	assert.True(t, errors.Is(err, apperror.ErrOrderNotDeletable))

	err = writeError(&pq.Error{Code: "23503", Constraint: "bids_project_id_fkey"}, "insert")
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(err))
}

func TestWriteError_Generic(t *testing.T) {
	err := writeError(errors.New("connection reset"), "update")
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(err))
}

func TestReadError(t *testing.T) {
	assert.Equal(t, apperror.ErrEscrowNotFound, readError(sql.ErrNoRows, apperror.ErrEscrowNotFound, "get"))
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(readError(errors.New("boom"), apperror.ErrEscrowNotFound, "get")))
}

func TestOrderRow_RoundTrip(t *testing.T) {
	gigID, escrowID := uuid.New(), uuid.New()
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	order := &entity.Order{
		ID:               uuid.New(),
		Origin:           valueobject.OrderOriginGig,
		GigID:            &gigID,
		SellerID:         uuid.New(),
		BuyerID:          uuid.New(),
		EscrowID:         &escrowID,
		Price:            1500,
		PaymentMethod:    valueobject.GatewayKhalti,
		IsPaid:           valueobject.PaidStatusCompleted,
		SellerWorkStatus: true,
		OrderStatus:      valueobject.OrderStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	assert.Equal(t, order, orderRowFrom(order).toEntity())
}

func TestProjectRow_EmptyAttachments(t *testing.T) {
	project := &entity.Project{ID: uuid.New(), Status: valueobject.ProjectStatusOpen}

	row := projectRowFrom(project)
	assert.NotNil(t, row.Attachments)
	assert.Empty(t, row.Attachments)
}
