package bidding_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/memory"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/bidding"
)

type testEnv struct {
	store *memory.Store
	deps  bidding.Deps
	now   time.Time
}

func newEnv() *testEnv {
	env := &testEnv{
		store: memory.NewStore(),
		now:   time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	env.deps = bidding.Deps{UoW: env.store, Clock: func() time.Time { return env.now }}
	return env
}

func (e *testEnv) createProject(t *testing.T, clientID uuid.UUID) *entity.Project {
	t.Helper()
	project, err := bidding.NewCreateProjectUseCase(e.deps).Execute(context.Background(), bidding.CreateProjectInput{
		ClientID:    clientID,
		Title:       "Mobile app",
		Description: "Flutter client for the marketplace",
		BudgetMin:   200,
		BudgetMax:   2000,
		Category:    "mobile",
	})
	require.NoError(t, err)
	return project
}

func (e *testEnv) submit(projectID, bidderID uuid.UUID, amount float64) (*entity.Bid, error) {
	return bidding.NewSubmitBidUseCase(e.deps).Execute(context.Background(), bidding.SubmitBidInput{
		ProjectID:    projectID,
		BidderID:     bidderID,
		Role:         valueobject.RoleSeller,
		Amount:       amount,
		Proposal:     "I have done this before",
		DeliveryDays: 14,
	})
}

func (e *testEnv) bid(t *testing.T, id uuid.UUID) *entity.Bid {
	t.Helper()
	var bid *entity.Bid
	require.NoError(t, e.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		bid, err = tx.Bids().GetByID(ctx, id)
		return err
	}))
	return bid
}

func (e *testEnv) project(t *testing.T, id uuid.UUID) *entity.Project {
	t.Helper()
	var project *entity.Project
	require.NoError(t, e.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		project, err = tx.Projects().GetByID(ctx, id)
		return err
	}))
	return project
}

func TestSubmitBid_DuplicateRejected(t *testing.T) {
	env := newEnv()
	project := env.createProject(t, uuid.New())
	seller := uuid.New()

	first, err := env.submit(project.ID, seller, 500)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BidStatusPending, first.Status)
	assert.Equal(t, env.now.Add(entity.DefaultBidValidity), first.ValidUntil)

	_, err = env.submit(project.ID, seller, 450)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	assert.Contains(t, err.Error(), "already submitted a bid")
}

func TestSubmitBid_AfterWithdrawAllowed(t *testing.T) {
	env := newEnv()
	project := env.createProject(t, uuid.New())
	seller := uuid.New()

	first, err := env.submit(project.ID, seller, 500)
	require.NoError(t, err)

	withdrawn, err := bidding.NewWithdrawBidUseCase(env.deps).Execute(context.Background(), first.ID, seller)
	require.NoError(t, err)
	assert.Equal(t, valueobject.BidStatusWithdrawn, withdrawn.Status)

	_, err = env.submit(project.ID, seller, 480)
	assert.NoError(t, err)
}

func TestWithdrawBid_OnlyOwner(t *testing.T) {
	env := newEnv()
	project := env.createProject(t, uuid.New())
	bid, err := env.submit(project.ID, uuid.New(), 500)
	require.NoError(t, err)

	_, err = bidding.NewWithdrawBidUseCase(env.deps).Execute(context.Background(), bid.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotBidOwner))
}

func TestSubmitBid_Preconditions(t *testing.T) {
	env := newEnv()
	client := uuid.New()
	project := env.createProject(t, client)

	_, err := bidding.NewSubmitBidUseCase(env.deps).Execute(context.Background(), bidding.SubmitBidInput{
		ProjectID: project.ID, BidderID: uuid.New(), Role: valueobject.RoleBuyer,
		Amount: 100, Proposal: "p", DeliveryDays: 1,
	})
	assert.True(t, errors.Is(err, apperror.ErrNotSeller))

	_, err = env.submit(project.ID, client, 100)
	assert.True(t, errors.Is(err, apperror.ErrOwnProject))

	_, err = env.submit(uuid.New(), uuid.New(), 100)
	assert.True(t, apperror.IsNotFound(err))

	env.now = project.ExpiresAt.Add(time.Minute)
	_, err = env.submit(project.ID, uuid.New(), 100)
	assert.True(t, errors.Is(err, apperror.ErrProjectExpired))
}

func TestAwardBid_Exclusive(t *testing.T) {
	env := newEnv()
	client := uuid.New()
	project := env.createProject(t, client)

	b1, err := env.submit(project.ID, uuid.New(), 600)
	require.NoError(t, err)
	b2, err := env.submit(project.ID, uuid.New(), 650)
	require.NoError(t, err)

	award := bidding.NewAwardBidUseCase(env.deps)
	result, err := award.Execute(context.Background(), b1.ID, client)
	require.NoError(t, err)

	assert.Equal(t, valueobject.BidStatusAccepted, result.Bid.Status)
	assert.NotNil(t, result.Bid.SelectedAt)
	assert.Equal(t, valueobject.ProjectStatusAwarded, result.Project.Status)
	assert.Equal(t, b1.ID, *result.Project.SelectedBidID)
	assert.Equal(t, valueobject.BidStatusRejected, env.bid(t, b2.ID).Status)

	assert.Equal(t, valueobject.OrderOriginBid, result.Order.Origin)
	assert.Equal(t, client, result.Order.BuyerID)
	assert.Equal(t, b1.BidderID, result.Order.SellerID)
	assert.Equal(t, 600.0, result.Order.Price)
	assert.Equal(t, valueobject.GatewayStripe, result.Order.PaymentMethod)
	assert.Equal(t, valueobject.PaidStatusPending, result.Order.IsPaid)
	assert.Equal(t, valueobject.EscrowStatusNotInitiated, result.Escrow.Status)
	assert.Equal(t, 600.0, result.Escrow.Amount)
	assert.Equal(t, result.Escrow.ID, *result.Order.EscrowID)

	_, err = award.Execute(context.Background(), b2.ID, client)
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))

	stored := env.project(t, project.ID)
	assert.Equal(t, valueobject.ProjectStatusAwarded, stored.Status)
	assert.Equal(t, b1.ID, *stored.SelectedBidID)
	assert.Equal(t, valueobject.BidStatusAccepted, env.bid(t, b1.ID).Status)
	assert.Equal(t, valueobject.BidStatusRejected, env.bid(t, b2.ID).Status)
}

func TestAwardBid_Preconditions(t *testing.T) {
	env := newEnv()
	client := uuid.New()
	project := env.createProject(t, client)
	bid, err := env.submit(project.ID, uuid.New(), 300)
	require.NoError(t, err)
	award := bidding.NewAwardBidUseCase(env.deps)

	_, err = award.Execute(context.Background(), bid.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotProjectClient))

	_, err = award.Execute(context.Background(), uuid.New(), client)
	assert.True(t, apperror.IsNotFound(err))

	env.now = bid.ValidUntil.Add(time.Second)
	_, err = award.Execute(context.Background(), bid.ID, client)
	assert.True(t, apperror.IsConflict(err))
	assert.Equal(t, valueobject.BidStatusPending, env.bid(t, bid.ID).Status)
	assert.Equal(t, valueobject.ProjectStatusOpen, env.project(t, project.ID).Status)
}

func TestAwardBid_ExpiredBid(t *testing.T) {
	env := newEnv()
	client := uuid.New()
	project, err := bidding.NewCreateProjectUseCase(env.deps).Execute(context.Background(), bidding.CreateProjectInput{
		ClientID: client, Title: "t", Description: "d", BudgetMax: 100,
		ExpiresAt: ptrTime(env.now.Add(90 * 24 * time.Hour)),
	})
	require.NoError(t, err)
	bid, err := env.submit(project.ID, uuid.New(), 90)
	require.NoError(t, err)

	env.now = bid.ValidUntil.Add(time.Hour)
	_, err = bidding.NewAwardBidUseCase(env.deps).Execute(context.Background(), bid.ID, client)
	assert.True(t, errors.Is(err, apperror.ErrBidExpired))
}

func TestAwardBid_ConcurrentOnlyOneWins(t *testing.T) {
	env := newEnv()
	client := uuid.New()
	project := env.createProject(t, client)

	var bids []*entity.Bid
	for i := 0; i < 6; i++ {
		b, err := env.submit(project.ID, uuid.New(), float64(300+i))
		require.NoError(t, err)
		bids = append(bids, b)
	}

	award := bidding.NewAwardBidUseCase(env.deps)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, b := range bids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if _, err := award.Execute(context.Background(), id, client); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(b.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	accepted := 0
	for _, b := range bids {
		switch env.bid(t, b.ID).Status {
		case valueobject.BidStatusAccepted:
			accepted++
		case valueobject.BidStatusRejected:
		default:
			t.Errorf("unexpected status for bid %s", b.ID)
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestCancelProject(t *testing.T) {
	env := newEnv()
	client := uuid.New()
	project := env.createProject(t, client)
	bid, err := env.submit(project.ID, uuid.New(), 300)
	require.NoError(t, err)

	cancel := bidding.NewCancelProjectUseCase(env.deps)
	_, err = cancel.Execute(context.Background(), project.ID, uuid.New())
	assert.True(t, errors.Is(err, apperror.ErrNotProjectClient))

	cancelled, err := cancel.Execute(context.Background(), project.ID, client)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ProjectStatusCancelled, cancelled.Status)
	assert.Equal(t, valueobject.BidStatusRejected, env.bid(t, bid.ID).Status)

	_, err = env.submit(project.ID, uuid.New(), 300)
	assert.True(t, errors.Is(err, apperror.ErrProjectNotOpen))
}

func TestListProjectBids_Visibility(t *testing.T) {
	env := newEnv()
	client := uuid.New()
	project := env.createProject(t, client)
	sellerA, sellerB := uuid.New(), uuid.New()
	_, err := env.submit(project.ID, sellerA, 100)
	require.NoError(t, err)
	_, err = env.submit(project.ID, sellerB, 120)
	require.NoError(t, err)

	list := bidding.NewListProjectBidsUseCase(env.deps)

	all, err := list.Execute(context.Background(), project.ID, client, valueobject.RoleBuyer)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := list.Execute(context.Background(), project.ID, sellerA, valueobject.RoleSeller)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, sellerA, own[0].BidderID)
}

func TestExpirySweeper(t *testing.T) {
	env := newEnv()
	project, err := bidding.NewCreateProjectUseCase(env.deps).Execute(context.Background(), bidding.CreateProjectInput{
		ClientID: uuid.New(), Title: "t", Description: "d", BudgetMax: 100,
		ExpiresAt: ptrTime(env.now.Add(90 * 24 * time.Hour)),
	})
	require.NoError(t, err)
	stale, err := env.submit(project.ID, uuid.New(), 50)
	require.NoError(t, err)

	env.now = env.now.Add(31 * 24 * time.Hour)
	fresh, err := env.submit(project.ID, uuid.New(), 60)
	require.NoError(t, err)

	n, err := bidding.NewExpirySweeper(env.deps, time.Minute).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, valueobject.BidStatusExpired, env.bid(t, stale.ID).Status)
	assert.Equal(t, valueobject.BidStatusPending, env.bid(t, fresh.ID).Status)
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
