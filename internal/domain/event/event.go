// Package event описывает события, которые движки отправляют участникам сделки.
package event

import "github.com/google/uuid"

const (
	EscrowOpened          = "escrow.opened"
	EscrowWorkConfirmed   = "escrow.work_confirmed"
	EscrowReadyForRelease = "escrow.waiting_to_release"
	EscrowReleased        = "escrow.released"
	EscrowRefunded        = "escrow.refunded"
	BidSubmitted          = "bid.submitted"
	BidAwarded            = "bid.awarded"
	BidRejected           = "bid.rejected"
	ProjectCancelled      = "project.cancelled"
	PaymentFailed         = "payment.failed"
	PaymentRefundDue      = "payment.refund_due"
)

// Publisher доставляет событие пользователю. Ошибки доставки не влияют на результат операции.
type Publisher interface {
	Publish(userID uuid.UUID, name string, data any)
}

type NopPublisher struct{}

func (NopPublisher) Publish(uuid.UUID, string, any) {}

// Message — отложенное событие, отправляемое после фиксации транзакции.
type Message struct {
	UserID uuid.UUID
	Name   string
	Data   any
}

func PublishAll(p Publisher, messages []Message) {
	for _, m := range messages {
		p.Publish(m.UserID, m.Name, m.Data)
	}
}
