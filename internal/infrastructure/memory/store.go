// Package memory хранит данные в памяти процесса. Используется в тестах и при STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
)

type state struct {
	projects map[uuid.UUID]entity.Project
	bids     map[uuid.UUID]entity.Bid
	orders   map[uuid.UUID]entity.Order
	payments map[uuid.UUID]entity.Payment
	escrows  map[uuid.UUID]entity.Escrow
	payouts  map[uuid.UUID]entity.Payout
	gigs     map[uuid.UUID]entity.Gig
}

func newState() *state {
	return &state{
		projects: map[uuid.UUID]entity.Project{},
		bids:     map[uuid.UUID]entity.Bid{},
		orders:   map[uuid.UUID]entity.Order{},
		payments: map[uuid.UUID]entity.Payment{},
		escrows:  map[uuid.UUID]entity.Escrow{},
		payouts:  map[uuid.UUID]entity.Payout{},
		gigs:     map[uuid.UUID]entity.Gig{},
	}
}

func (s *state) clone() *state {
	return &state{
		projects: cloneMap(s.projects),
		bids:     cloneMap(s.bids),
		orders:   cloneMap(s.orders),
		payments: cloneMap(s.payments),
		escrows:  cloneMap(s.escrows),
		payouts:  cloneMap(s.payouts),
		gigs:     cloneMap(s.gigs),
	}
}

func cloneMap[V any](m map[uuid.UUID]V) map[uuid.UUID]V {
	out := make(map[uuid.UUID]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Store сериализует единицы работы мьютексом и применяет изменения только при успешном завершении.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := &memTx{state: s.state.clone()}
	if err := fn(ctx, work); err != nil {
		return err
	}
	s.state = work.state
	return nil
}

// PutGig добавляет услугу в каталог. Каталог наполняется вне этого сервиса.
func (s *Store) PutGig(gig entity.Gig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.gigs[gig.ID] = gig
}

type memTx struct {
	state *state
}

func (t *memTx) Projects() repository.ProjectRepository { return projectRepo{t.state} }
func (t *memTx) Bids() repository.BidRepository         { return bidRepo{t.state} }
func (t *memTx) Orders() repository.OrderRepository     { return orderRepo{t.state} }
func (t *memTx) Payments() repository.PaymentRepository { return paymentRepo{t.state} }
func (t *memTx) Escrows() repository.EscrowRepository   { return escrowRepo{t.state} }
func (t *memTx) Payouts() repository.PayoutRepository   { return payoutRepo{t.state} }
func (t *memTx) Gigs() repository.GigRepository         { return gigRepo{t.state} }

var _ repository.UnitOfWork = (*Store)(nil)
