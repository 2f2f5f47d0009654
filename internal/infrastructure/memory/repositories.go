package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type projectRepo struct{ s *state }

func (r projectRepo) Create(_ context.Context, p *entity.Project) error {
	r.s.projects[p.ID] = copyProject(*p)
	return nil
}

func (r projectRepo) Update(_ context.Context, p *entity.Project) error {
	if _, ok := r.s.projects[p.ID]; !ok {
		return apperror.ErrProjectNotFound
	}
	r.s.projects[p.ID] = copyProject(*p)
	return nil
}

func (r projectRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Project, error) {
	p, ok := r.s.projects[id]
	if !ok {
		return nil, apperror.ErrProjectNotFound
	}
	out := copyProject(p)
	return &out, nil
}

func (r projectRepo) LockByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	return r.GetByID(ctx, id)
}

func copyProject(p entity.Project) entity.Project {
	p.Attachments = append([]string{}, p.Attachments...)
	return p
}

type bidRepo struct{ s *state }

// checkUnique повторяет частичные уникальные индексы таблицы bids.
func (r bidRepo) checkUnique(b *entity.Bid) error {
	for id, other := range r.s.bids {
		if id == b.ID || other.ProjectID != b.ProjectID {
			continue
		}
		if b.Status == valueobject.BidStatusPending && other.Status == valueobject.BidStatusPending && other.BidderID == b.BidderID {
			return apperror.ErrDuplicateBid
		}
		if b.Status == valueobject.BidStatusAccepted && other.Status == valueobject.BidStatusAccepted {
			return apperror.ErrBidAlreadyAccepted
		}
	}
	return nil
}

func (r bidRepo) Create(_ context.Context, b *entity.Bid) error {
	if err := r.checkUnique(b); err != nil {
		return err
	}
	r.s.bids[b.ID] = copyBid(*b)
	return nil
}

func (r bidRepo) Update(_ context.Context, b *entity.Bid) error {
	if _, ok := r.s.bids[b.ID]; !ok {
		return apperror.ErrBidNotFound
	}
	if err := r.checkUnique(b); err != nil {
		return err
	}
	r.s.bids[b.ID] = copyBid(*b)
	return nil
}

func (r bidRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Bid, error) {
	b, ok := r.s.bids[id]
	if !ok {
		return nil, apperror.ErrBidNotFound
	}
	out := copyBid(b)
	return &out, nil
}

func (r bidRepo) ListByProject(_ context.Context, projectID uuid.UUID) ([]*entity.Bid, error) {
	bids := make([]*entity.Bid, 0)
	for _, b := range r.s.bids {
		if b.ProjectID == projectID {
			out := copyBid(b)
			bids = append(bids, &out)
		}
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].CreatedAt.After(bids[j].CreatedAt) })
	return bids, nil
}

func (r bidRepo) FindPendingByBidder(_ context.Context, projectID, bidderID uuid.UUID) (*entity.Bid, error) {
	for _, b := range r.s.bids {
		if b.ProjectID == projectID && b.BidderID == bidderID && b.Status == valueobject.BidStatusPending {
			out := copyBid(b)
			return &out, nil
		}
	}
	return nil, nil
}

func (r bidRepo) HasAccepted(_ context.Context, projectID uuid.UUID) (bool, error) {
	for _, b := range r.s.bids {
		if b.ProjectID == projectID && b.Status == valueobject.BidStatusAccepted {
			return true, nil
		}
	}
	return false, nil
}

func (r bidRepo) RejectPendingExcept(_ context.Context, projectID, keepBidID uuid.UUID, at time.Time) (int, error) {
	n := 0
	for id, b := range r.s.bids {
		if b.ProjectID != projectID || id == keepBidID || b.Status != valueobject.BidStatusPending {
			continue
		}
		b.Status = valueobject.BidStatusRejected
		b.UpdatedAt = at
		r.s.bids[id] = b
		n++
	}
	return n, nil
}

func (r bidRepo) ExpireStale(_ context.Context, at time.Time) (int, error) {
	n := 0
	for id, b := range r.s.bids {
		if b.Status != valueobject.BidStatusPending || at.Before(b.ValidUntil) {
			continue
		}
		b.Status = valueobject.BidStatusExpired
		b.UpdatedAt = at
		r.s.bids[id] = b
		n++
	}
	return n, nil
}

func copyBid(b entity.Bid) entity.Bid {
	b.Attachments = append([]string{}, b.Attachments...)
	return b
}

type orderRepo struct{ s *state }

func (r orderRepo) Create(_ context.Context, o *entity.Order) error {
	r.s.orders[o.ID] = *o
	return nil
}

func (r orderRepo) Update(_ context.Context, o *entity.Order) error {
	if _, ok := r.s.orders[o.ID]; !ok {
		return apperror.ErrOrderNotFound
	}
	r.s.orders[o.ID] = *o
	return nil
}

func (r orderRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.orders[id]; !ok {
		return apperror.ErrOrderNotFound
	}
	for _, e := range r.s.escrows {
		if e.OrderID == id {
			return apperror.ErrOrderNotDeletable
		}
	}
	delete(r.s.orders, id)
	return nil
}

func (r orderRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return nil, apperror.ErrOrderNotFound
	}
	return &o, nil
}

func (r orderRepo) LockByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	return r.GetByID(ctx, id)
}

type paymentRepo struct{ s *state }

func (r paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	for _, other := range r.s.payments {
		if other.Gateway == p.Gateway && other.CorrelationToken == p.CorrelationToken {
			return apperror.ErrDuplicatePayment
		}
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) Update(_ context.Context, p *entity.Payment) error {
	if _, ok := r.s.payments[p.ID]; !ok {
		return apperror.ErrPaymentNotFound
	}
	r.s.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) LockByCorrelationToken(_ context.Context, gateway valueobject.Gateway, token string) (*entity.Payment, error) {
	for _, p := range r.s.payments {
		if p.Gateway == gateway && p.CorrelationToken == token {
			out := p
			return &out, nil
		}
	}
	return nil, apperror.ErrPaymentNotFound
}

func (r paymentRepo) ListByStatus(_ context.Context, status valueobject.PaymentStatus) ([]*entity.Payment, error) {
	payments := make([]*entity.Payment, 0)
	for _, p := range r.s.payments {
		if p.Status == status {
			p := p
			payments = append(payments, &p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].UpdatedAt.Before(payments[j].UpdatedAt) })
	return payments, nil
}

type escrowRepo struct{ s *state }

func (r escrowRepo) Create(_ context.Context, e *entity.Escrow) error {
	for _, other := range r.s.escrows {
		if other.OrderID == e.OrderID {
			return apperror.ErrEscrowExists
		}
	}
	r.s.escrows[e.ID] = *e
	return nil
}

func (r escrowRepo) Update(_ context.Context, e *entity.Escrow) error {
	if _, ok := r.s.escrows[e.ID]; !ok {
		return apperror.ErrEscrowNotFound
	}
	r.s.escrows[e.ID] = *e
	return nil
}

func (r escrowRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Escrow, error) {
	e, ok := r.s.escrows[id]
	if !ok {
		return nil, apperror.ErrEscrowNotFound
	}
	return &e, nil
}

func (r escrowRepo) LockByID(ctx context.Context, id uuid.UUID) (*entity.Escrow, error) {
	return r.GetByID(ctx, id)
}

func (r escrowRepo) LockByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Escrow, error) {
	return r.GetByOrderID(ctx, orderID)
}

func (r escrowRepo) GetByOrderID(_ context.Context, orderID uuid.UUID) (*entity.Escrow, error) {
	for _, e := range r.s.escrows {
		if e.OrderID == orderID {
			out := e
			return &out, nil
		}
	}
	return nil, apperror.ErrEscrowNotFound
}

func (r escrowRepo) ListByStatus(_ context.Context, status valueobject.EscrowStatus) ([]*entity.Escrow, error) {
	escrows := make([]*entity.Escrow, 0)
	for _, e := range r.s.escrows {
		if e.Status == status {
			out := e
			escrows = append(escrows, &out)
		}
	}
	sort.Slice(escrows, func(i, j int) bool { return escrows[i].UpdatedAt.Before(escrows[j].UpdatedAt) })
	return escrows, nil
}

type payoutRepo struct{ s *state }

func (r payoutRepo) Create(_ context.Context, p *entity.Payout) error {
	for _, other := range r.s.payouts {
		if other.EscrowID == p.EscrowID {
			return apperror.ErrPayoutExists
		}
	}
	r.s.payouts[p.ID] = *p
	return nil
}

func (r payoutRepo) ListByEscrow(_ context.Context, escrowID uuid.UUID) ([]*entity.Payout, error) {
	payouts := make([]*entity.Payout, 0)
	for _, p := range r.s.payouts {
		if p.EscrowID == escrowID {
			out := p
			payouts = append(payouts, &out)
		}
	}
	return payouts, nil
}

type gigRepo struct{ s *state }

func (r gigRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Gig, error) {
	g, ok := r.s.gigs[id]
	if !ok {
		return nil, apperror.ErrGigNotFound
	}
	return &g, nil
}
