package settlement_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/settlement"
)

func TestSettlement_HappyPath(t *testing.T) {
	f := newFixture()
	order := f.createGigOrder(t, 500)

	stored, escrow := f.load(t, order.ID)
	assert.Nil(t, escrow)
	assert.Nil(t, stored.EscrowID)
	assert.Equal(t, valueobject.PaidStatusPending, stored.IsPaid)

	opened, err := f.pay(t, order)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusHolding, opened.Escrow.Status)
	assert.Equal(t, 500.0, opened.Escrow.Amount)
	assert.Equal(t, valueobject.PaidStatusCompleted, opened.Order.IsPaid)
	require.NotNil(t, opened.Order.EscrowID)
	assert.Equal(t, opened.Escrow.ID, *opened.Order.EscrowID)

	res, err := f.confirm(t, order, order.SellerID, true)
	require.NoError(t, err)
	assert.True(t, res.Escrow.SellerConfirmed)
	assert.Equal(t, valueobject.EscrowStatusHolding, res.Escrow.Status)
	assert.Equal(t, valueobject.OrderStatusInProgress, res.Order.OrderStatus)

	res, err = f.confirm(t, order, order.BuyerID, true)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusWaitingToRelease, res.Escrow.Status)
	assert.Equal(t, 2, f.publisher.count(event.EscrowReadyForRelease))

	released, err := f.release(opened.Escrow.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusReleased, released.Escrow.Status)
	require.NotNil(t, released.Escrow.ReleasedAt)
	assert.Equal(t, f.adminID, *released.Escrow.ReleasedBy)
	assert.Equal(t, valueobject.OrderStatusCompleted, released.Order.OrderStatus)

	payouts := f.payouts(t, opened.Escrow.ID)
	require.Len(t, payouts, 1)
	assert.Equal(t, 500.0, payouts[0].Amount)
	assert.Equal(t, order.SellerID, payouts[0].SellerID)
}

func TestOpenEscrow_SecondCallIsIntegrityError(t *testing.T) {
	f := newFixture()
	order := f.createGigOrder(t, 120)

	first, err := f.pay(t, order)
	require.NoError(t, err)

	_, err = f.pay(t, order)
	require.Error(t, err)
	assert.True(t, apperror.IsIntegrity(err))

	stored, escrow := f.load(t, order.ID)
	assert.Equal(t, first.Escrow.ID, escrow.ID)
	assert.Equal(t, first.Escrow.ID, *stored.EscrowID)
}

func TestOpenEscrow_RequiresSuccessfulPayment(t *testing.T) {
	f := newFixture()
	order := f.createGigOrder(t, 120)

	err := f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		payment, err := entity.NewPayment(order, valueobject.GatewayKhalti, now)
		require.NoError(t, err)
		_, err = settlement.OpenEscrow(ctx, tx, payment, now)
		return err
	})
	assert.True(t, errors.Is(err, apperror.ErrPaymentNotSuccess))

	stored, escrow := f.load(t, order.ID)
	assert.Nil(t, escrow)
	assert.Equal(t, valueobject.PaidStatusPending, stored.IsPaid)
}

func TestOpenEscrow_ActivatesReservedBidEscrow(t *testing.T) {
	f := newFixture()

	project, err := entity.NewProject(entity.NewProjectParams{
		ClientID: uuid.New(), Title: "API", Description: "REST API", BudgetMin: 100, BudgetMax: 1000,
	}, now)
	require.NoError(t, err)
	bid, err := entity.NewBid(project.ID, uuid.New(), 700, "proposal", 10, nil, now)
	require.NoError(t, err)
	require.NoError(t, bid.Accept(now))
	require.NoError(t, project.Award(bid.ID, now))
	order, err := entity.NewBidOrder(project, bid, now)
	require.NoError(t, err)
	reserved := entity.NewPendingEscrow(order.ID, bid.Amount, now)
	require.NoError(t, order.AttachEscrow(reserved.ID, now))

	require.NoError(t, f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		if err := tx.Projects().Create(ctx, project); err != nil {
			return err
		}
		if err := tx.Bids().Create(ctx, bid); err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		return tx.Escrows().Create(ctx, reserved)
	}))

	_, err = f.confirm(t, order, order.SellerID, true)
	assert.True(t, errors.Is(err, apperror.ErrOrderNotPaid))

	opened, err := f.pay(t, order)
	require.NoError(t, err)
	assert.Equal(t, reserved.ID, opened.Escrow.ID)
	assert.Equal(t, valueobject.EscrowStatusHolding, opened.Escrow.Status)
	assert.Equal(t, valueobject.PaidStatusCompleted, opened.Order.IsPaid)

	require.NoError(t, f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		stored, err := tx.Projects().GetByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, valueobject.ProjectStatusInProgress, stored.Status)
		return nil
	}))

	_, err = f.confirm(t, order, order.SellerID, true)
	require.NoError(t, err)
	_, err = f.confirm(t, order, order.BuyerID, true)
	require.NoError(t, err)
	_, err = f.release(reserved.ID)
	require.NoError(t, err)

	require.NoError(t, f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		stored, err := tx.Projects().GetByID(ctx, project.ID)
		require.NoError(t, err)
		assert.Equal(t, valueobject.ProjectStatusCompleted, stored.Status)
		return nil
	}))
}

func TestConfirmWork_BeforePaymentFails(t *testing.T) {
	f := newFixture()
	order := f.createGigOrder(t, 80)

	for _, actor := range []uuid.UUID{order.SellerID, order.BuyerID} {
		_, err := f.confirm(t, order, actor, true)
		assert.True(t, errors.Is(err, apperror.ErrOrderNotPaid))
	}

	stored, _ := f.load(t, order.ID)
	assert.False(t, stored.SellerWorkStatus)
	assert.False(t, stored.BuyerWorkStatus)
}

func TestConfirmWork_Idempotent(t *testing.T) {
	f := newFixture()
	order, _ := f.paidGigOrder(t, 300)

	_, err := f.confirm(t, order, order.SellerID, true)
	require.NoError(t, err)
	orderOnce, escrowOnce := f.load(t, order.ID)

	_, err = f.confirm(t, order, order.SellerID, true)
	require.NoError(t, err)
	orderTwice, escrowTwice := f.load(t, order.ID)

	assert.Equal(t, orderOnce, orderTwice)
	assert.Equal(t, escrowOnce, escrowTwice)
}

func TestConfirmWork_ForeignActorForbidden(t *testing.T) {
	f := newFixture()
	order, _ := f.paidGigOrder(t, 300)

	_, err := f.confirm(t, order, uuid.New(), true)
	assert.True(t, errors.Is(err, apperror.ErrNotOrderParty))
}

func TestConfirmWork_BothTrueForcesWaitingToRelease(t *testing.T) {
	f := newFixture()
	order, _ := f.paidGigOrder(t, 300)

	_, err := f.confirm(t, order, order.BuyerID, true)
	require.NoError(t, err)
	_, err = f.confirm(t, order, order.SellerID, false)
	require.NoError(t, err)
	_, escrow := f.load(t, order.ID)
	assert.Equal(t, valueobject.EscrowStatusHolding, escrow.Status)

	_, err = f.confirm(t, order, order.SellerID, true)
	require.NoError(t, err)
	_, escrow = f.load(t, order.ID)
	assert.True(t, escrow.SellerConfirmed && escrow.BuyerConfirmed)
	assert.Equal(t, valueobject.EscrowStatusWaitingToRelease, escrow.Status)
}

func TestConfirmWork_LockedOnceReleaseEligible(t *testing.T) {
	f := newFixture()
	order, _ := f.paidGigOrder(t, 300)

	_, err := f.confirm(t, order, order.SellerID, true)
	require.NoError(t, err)
	_, err = f.confirm(t, order, order.BuyerID, true)
	require.NoError(t, err)

	_, err = f.confirm(t, order, order.BuyerID, false)
	assert.True(t, errors.Is(err, apperror.ErrEscrowLocked))

	stored, escrow := f.load(t, order.ID)
	assert.True(t, stored.BuyerWorkStatus)
	assert.Equal(t, valueobject.EscrowStatusWaitingToRelease, escrow.Status)
}

func TestConfirmWork_ConcurrentConfirmationsReachWaitingToRelease(t *testing.T) {
	f := newFixture()
	order, _ := f.paidGigOrder(t, 300)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for _, actor := range []uuid.UUID{order.SellerID, order.BuyerID} {
			wg.Add(1)
			go func(actor uuid.UUID) {
				defer wg.Done()
				_, err := f.confirm(t, order, actor, true)
				assert.NoError(t, err)
			}(actor)
		}
	}
	wg.Wait()

	_, escrow := f.load(t, order.ID)
	assert.Equal(t, valueobject.EscrowStatusWaitingToRelease, escrow.Status)
}

func TestConfirmWork_MissingEscrowIsIntegrityError(t *testing.T) {
	f := newFixture()
	order := f.createGigOrder(t, 60)
	require.NoError(t, f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		stored, err := tx.Orders().GetByID(ctx, order.ID)
		if err != nil {
			return err
		}
		stored.IsPaid = valueobject.PaidStatusCompleted
		return tx.Orders().Update(ctx, stored)
	}))

	_, err := f.confirm(t, order, order.SellerID, true)
	assert.True(t, errors.Is(err, apperror.ErrEscrowMissing))
	assert.Equal(t, "Escrow record not found for this order", apperror.ErrEscrowMissing.Message)
}

func TestRelease_PrematureFails(t *testing.T) {
	f := newFixture()
	order, escrow := f.paidGigOrder(t, 500)

	_, err := f.release(escrow.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrEscrowNotReleasable))
	assert.Equal(t, "Escrow is not in waitingToRelease state", apperror.ErrEscrowNotReleasable.Message)

	_, stored := f.load(t, order.ID)
	assert.Equal(t, valueobject.EscrowStatusHolding, stored.Status)
	assert.Nil(t, stored.ReleasedAt)
	assert.Empty(t, f.payouts(t, escrow.ID))
}

func TestRelease_ExactlyOnce(t *testing.T) {
	f := newFixture()
	order, escrow := f.paidGigOrder(t, 500)
	_, err := f.confirm(t, order, order.SellerID, true)
	require.NoError(t, err)
	_, err = f.confirm(t, order, order.BuyerID, true)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.release(escrow.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if apperror.IsConflict(err) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, 7, conflicts)
	assert.Len(t, f.payouts(t, escrow.ID), 1)

	_, err = f.confirm(t, order, order.SellerID, true)
	assert.NoError(t, err)
	_, err = f.confirm(t, order, order.SellerID, false)
	assert.True(t, errors.Is(err, apperror.ErrEscrowLocked))
	_, stored := f.load(t, order.ID)
	assert.Equal(t, valueobject.EscrowStatusReleased, stored.Status)
}

func TestRelease_RequiresAdmin(t *testing.T) {
	f := newFixture()
	_, escrow := f.paidGigOrder(t, 500)

	_, err := settlement.NewReleaseEscrowUseCase(f.deps).Execute(context.Background(), settlement.ReleaseInput{
		EscrowID: escrow.ID,
		AdminID:  uuid.New(),
		Role:     valueobject.RoleBuyer,
	})
	assert.True(t, errors.Is(err, apperror.ErrAdminOnly))
}

func TestRelease_UnknownEscrow(t *testing.T) {
	f := newFixture()

	_, err := f.release(uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestRefund_FromHolding(t *testing.T) {
	f := newFixture()
	order, escrow := f.paidGigOrder(t, 500)

	refunded, err := settlement.NewRefundEscrowUseCase(f.deps).Execute(context.Background(), settlement.RefundInput{
		EscrowID: escrow.ID,
		AdminID:  f.adminID,
		Role:     valueobject.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, valueobject.EscrowStatusRefunded, refunded.Status)

	stored, _ := f.load(t, order.ID)
	assert.Equal(t, valueobject.PaidStatusRefunded, stored.IsPaid)
	assert.Equal(t, valueobject.OrderStatusCancelled, stored.OrderStatus)

	_, err = f.release(escrow.ID)
	assert.True(t, errors.Is(err, apperror.ErrEscrowNotReleasable))
}

func TestGetEscrow_Access(t *testing.T) {
	f := newFixture()
	order, escrow := f.paidGigOrder(t, 200)
	uc := settlement.NewGetEscrowUseCase(f.deps)

	got, err := uc.Execute(context.Background(), order.ID, order.BuyerID, valueobject.RoleBuyer)
	require.NoError(t, err)
	assert.Equal(t, escrow.ID, got.ID)

	_, err = uc.Execute(context.Background(), order.ID, f.adminID, valueobject.RoleAdmin)
	assert.NoError(t, err)

	_, err = uc.Execute(context.Background(), order.ID, uuid.New(), valueobject.RoleSeller)
	assert.True(t, apperror.IsForbidden(err))
}

func TestListReleasable(t *testing.T) {
	f := newFixture()
	ready, readyEscrow := f.paidGigOrder(t, 200)
	f.paidGigOrder(t, 300)

	_, err := f.confirm(t, ready, ready.SellerID, true)
	require.NoError(t, err)
	_, err = f.confirm(t, ready, ready.BuyerID, true)
	require.NoError(t, err)

	uc := settlement.NewListReleasableUseCase(f.deps)
	escrows, err := uc.Execute(context.Background(), valueobject.RoleAdmin)
	require.NoError(t, err)
	require.Len(t, escrows, 1)
	assert.Equal(t, readyEscrow.ID, escrows[0].ID)

	_, err = uc.Execute(context.Background(), valueobject.RoleSeller)
	assert.True(t, apperror.IsForbidden(err))
}
