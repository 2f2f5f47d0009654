package valueobject

import "github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"

// transitionTable описывает допустимые переходы конечного автомата.
type transitionTable[S comparable] map[S][]S

func (t transitionTable[S]) allows(from, to S) bool {
	for _, status := range t[from] {
		if status == to {
			return true
		}
	}
	return false
}

type ProjectStatus string

const (
	ProjectStatusOpen       ProjectStatus = "open"
	ProjectStatusAwarded    ProjectStatus = "awarded"
	ProjectStatusInProgress ProjectStatus = "inProgress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

var projectTransitions = transitionTable[ProjectStatus]{
	ProjectStatusOpen:       {ProjectStatusAwarded, ProjectStatusCancelled},
	ProjectStatusAwarded:    {ProjectStatusInProgress},
	ProjectStatusInProgress: {ProjectStatusCompleted},
}

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusOpen, ProjectStatusAwarded, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

func (s ProjectStatus) CanTransitionTo(newStatus ProjectStatus) bool {
	return projectTransitions.allows(s, newStatus)
}

func NewProjectStatus(status string) (ProjectStatus, error) {
	s := ProjectStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус проекта")
	}
	return s, nil
}

// BidStatus. Единственный терминальный статус выигравшей ставки — accepted.
type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"
	BidStatusAccepted  BidStatus = "accepted"
	BidStatusRejected  BidStatus = "rejected"
	BidStatusWithdrawn BidStatus = "withdrawn"
	BidStatusExpired   BidStatus = "expired"
)

var bidTransitions = transitionTable[BidStatus]{
	BidStatusPending: {BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn, BidStatusExpired},
}

func (s BidStatus) IsValid() bool {
	switch s {
	case BidStatusPending, BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn, BidStatusExpired:
		return true
	}
	return false
}

func (s BidStatus) CanTransitionTo(newStatus BidStatus) bool {
	return bidTransitions.allows(s, newStatus)
}

func NewBidStatus(status string) (BidStatus, error) {
	s := BidStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус ставки")
	}
	return s, nil
}

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusInProgress OrderStatus = "inProgress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

func NewOrderStatus(status string) (OrderStatus, error) {
	s := OrderStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус заказа")
	}
	return s, nil
}

// PaidStatus — поле isPaid заказа.
type PaidStatus string

const (
	PaidStatusPending   PaidStatus = "pending"
	PaidStatusCompleted PaidStatus = "completed"
	PaidStatusRefunded  PaidStatus = "refunded"
)

func (s PaidStatus) IsValid() bool {
	switch s {
	case PaidStatusPending, PaidStatusCompleted, PaidStatusRefunded:
		return true
	}
	return false
}

type OrderOrigin string

const (
	OrderOriginGig OrderOrigin = "gig"
	OrderOriginBid OrderOrigin = "bid"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	// PaymentStatusRefundDue — деньги списаны, но заказ уже оплачен другим платежом. Подлежит возврату.
	PaymentStatusRefundDue PaymentStatus = "refundDue"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusRefundDue:
		return true
	}
	return false
}

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSuccess || s == PaymentStatusFailed || s == PaymentStatusRefundDue
}

type EscrowStatus string

const (
	EscrowStatusNotInitiated     EscrowStatus = "Not_Initiated"
	EscrowStatusHolding          EscrowStatus = "holding"
	EscrowStatusWaitingToRelease EscrowStatus = "waitingToRelease"
	EscrowStatusReleased         EscrowStatus = "released"
	EscrowStatusRefunded         EscrowStatus = "refunded"
)

// Назад автомат не ходит; released и refunded терминальны.
var escrowTransitions = transitionTable[EscrowStatus]{
	EscrowStatusNotInitiated:     {EscrowStatusHolding},
	EscrowStatusHolding:          {EscrowStatusWaitingToRelease, EscrowStatusRefunded},
	EscrowStatusWaitingToRelease: {EscrowStatusReleased, EscrowStatusRefunded},
}

func (s EscrowStatus) IsValid() bool {
	switch s {
	case EscrowStatusNotInitiated, EscrowStatusHolding, EscrowStatusWaitingToRelease, EscrowStatusReleased, EscrowStatusRefunded:
		return true
	}
	return false
}

func (s EscrowStatus) CanTransitionTo(newStatus EscrowStatus) bool {
	return escrowTransitions.allows(s, newStatus)
}

func (s EscrowStatus) IsTerminal() bool {
	return s == EscrowStatusReleased || s == EscrowStatusRefunded
}

func NewEscrowStatus(status string) (EscrowStatus, error) {
	s := EscrowStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус escrow")
	}
	return s, nil
}

type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusCompleted PayoutStatus = "completed"
	PayoutStatusFailed    PayoutStatus = "failed"
)

type Gateway string

const (
	GatewayKhalti Gateway = "khalti"
	GatewayStripe Gateway = "stripe"
)

func (g Gateway) IsValid() bool {
	return g == GatewayKhalti || g == GatewayStripe
}

func NewGateway(name string) (Gateway, error) {
	g := Gateway(name)
	if !g.IsValid() {
		return "", apperror.ErrUnknownGateway
	}
	return g, nil
}

// Role — роль пользователя из access токена.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

func (r Role) CanSell() bool {
	return r == RoleSeller
}
