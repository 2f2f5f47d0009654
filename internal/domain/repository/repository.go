package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
)

// Методы Get* возвращают apperror NotFound, если запись отсутствует.
// Методы Lock* дополнительно блокируют строку до конца транзакции.

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	Update(ctx context.Context, project *entity.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Project, error)
}

type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error
	Update(ctx context.Context, bid *entity.Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Bid, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*entity.Bid, error)
	FindPendingByBidder(ctx context.Context, projectID, bidderID uuid.UUID) (*entity.Bid, error)
	HasAccepted(ctx context.Context, projectID uuid.UUID) (bool, error)
	// RejectPendingExcept переводит остальные ожидающие ставки проекта в rejected и возвращает их число.
	RejectPendingExcept(ctx context.Context, projectID, keepBidID uuid.UUID, at time.Time) (int, error)
	// ExpireStale помечает просроченные ожидающие ставки как expired.
	ExpireStale(ctx context.Context, at time.Time) (int, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	Update(ctx context.Context, order *entity.Order) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Update(ctx context.Context, payment *entity.Payment) error
	LockByCorrelationToken(ctx context.Context, gateway valueobject.Gateway, token string) (*entity.Payment, error)
	ListByStatus(ctx context.Context, status valueobject.PaymentStatus) ([]*entity.Payment, error)
}

type EscrowRepository interface {
	Create(ctx context.Context, escrow *entity.Escrow) error
	Update(ctx context.Context, escrow *entity.Escrow) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Escrow, error)
	LockByID(ctx context.Context, id uuid.UUID) (*entity.Escrow, error)
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Escrow, error)
	LockByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Escrow, error)
	ListByStatus(ctx context.Context, status valueobject.EscrowStatus) ([]*entity.Escrow, error)
}

type PayoutRepository interface {
	Create(ctx context.Context, payout *entity.Payout) error
	ListByEscrow(ctx context.Context, escrowID uuid.UUID) ([]*entity.Payout, error)
}

type GigRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Gig, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entity.Notification, error)
}

// Tx — набор репозиториев, работающих в одной транзакции.
type Tx interface {
	Projects() ProjectRepository
	Bids() BidRepository
	Orders() OrderRepository
	Payments() PaymentRepository
	Escrows() EscrowRepository
	Payouts() PayoutRepository
	Gigs() GigRepository
}

// UnitOfWork выполняет fn в транзакции: ошибка откатывает все изменения.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
