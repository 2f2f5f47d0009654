package settlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/infrastructure/memory"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/usecase/settlement"
)

var now = time.Date(2025, 5, 10, 9, 30, 0, 0, time.UTC)

type published struct {
	userID uuid.UUID
	name   string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(userID uuid.UUID, name string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{userID: userID, name: name})
}

func (p *recordingPublisher) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.name == name {
			n++
		}
	}
	return n
}

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	deps      settlement.Deps
	adminID   uuid.UUID
}

func newFixture() *fixture {
	store := memory.NewStore()
	publisher := &recordingPublisher{}
	return &fixture{
		store:     store,
		publisher: publisher,
		deps: settlement.Deps{
			UoW:       store,
			Publisher: publisher,
			Clock:     func() time.Time { return now },
		},
		adminID: uuid.New(),
	}
}

func (f *fixture) createGigOrder(t *testing.T, price float64) *entity.Order {
	t.Helper()
	gig := &entity.Gig{ID: uuid.New(), SellerID: uuid.New(), Title: "Logo design", Price: price}
	order, err := entity.NewGigOrder(gig, uuid.New(), valueobject.GatewayKhalti, now)
	require.NoError(t, err)

	require.NoError(t, f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		return tx.Orders().Create(ctx, order)
	}))
	return order
}

// pay записывает успешный платёж и открывает escrow в одной транзакции.
func (f *fixture) pay(t *testing.T, order *entity.Order) (*settlement.OpenEscrowResult, error) {
	t.Helper()
	var result *settlement.OpenEscrowResult
	err := f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		payment, err := entity.NewPayment(order, order.PaymentMethod, now)
		if err != nil {
			return err
		}
		if err := payment.BindCorrelationToken(uuid.NewString()); err != nil {
			return err
		}
		if err := payment.MarkSuccess("txn-"+payment.ID.String(), nil, now); err != nil {
			return err
		}
		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}
		result, err = settlement.OpenEscrow(ctx, tx, payment, now)
		return err
	})
	return result, err
}

func (f *fixture) paidGigOrder(t *testing.T, price float64) (*entity.Order, *entity.Escrow) {
	t.Helper()
	order := f.createGigOrder(t, price)
	result, err := f.pay(t, order)
	require.NoError(t, err)
	return result.Order, result.Escrow
}

func (f *fixture) load(t *testing.T, orderID uuid.UUID) (*entity.Order, *entity.Escrow) {
	t.Helper()
	var (
		order  *entity.Order
		escrow *entity.Escrow
	)
	require.NoError(t, f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		if order, err = tx.Orders().GetByID(ctx, orderID); err != nil {
			return err
		}
		escrow, _ = tx.Escrows().GetByOrderID(ctx, orderID)
		return nil
	}))
	return order, escrow
}

func (f *fixture) payouts(t *testing.T, escrowID uuid.UUID) []*entity.Payout {
	t.Helper()
	var payouts []*entity.Payout
	require.NoError(t, f.store.Do(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		payouts, err = tx.Payouts().ListByEscrow(ctx, escrowID)
		return err
	}))
	return payouts
}

func (f *fixture) confirm(t *testing.T, order *entity.Order, actor uuid.UUID, done bool) (*settlement.ConfirmWorkResult, error) {
	t.Helper()
	return settlement.NewConfirmWorkUseCase(f.deps).Execute(context.Background(), settlement.ConfirmWorkInput{
		OrderID: order.ID,
		ActorID: actor,
		Done:    done,
	})
}

func (f *fixture) release(escrowID uuid.UUID) (*settlement.ReleaseResult, error) {
	return settlement.NewReleaseEscrowUseCase(f.deps).Execute(context.Background(), settlement.ReleaseInput{
		EscrowID: escrowID,
		AdminID:  f.adminID,
		Role:     valueobject.RoleAdmin,
	})
}
