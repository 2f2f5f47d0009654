package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type RefundInput struct {
	EscrowID uuid.UUID
	AdminID  uuid.UUID
	Role     valueobject.Role
}

// RefundEscrowUseCase возвращает средства покупателю. Через HTTP не доступен:
// возврат денег через шлюз пока не реализован, это только переход состояний.
type RefundEscrowUseCase struct {
	deps Deps
}

func NewRefundEscrowUseCase(deps Deps) *RefundEscrowUseCase {
	return &RefundEscrowUseCase{deps: deps.withDefaults()}
}

func (uc *RefundEscrowUseCase) Execute(ctx context.Context, input RefundInput) (*entity.Escrow, error) {
	if !input.Role.IsAdmin() {
		return nil, apperror.ErrAdminOnly
	}

	var (
		escrow *entity.Escrow
		order  *entity.Order
	)
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		escrow, err = tx.Escrows().LockByID(ctx, input.EscrowID)
		if err != nil {
			return err
		}

		now := uc.deps.Clock()
		if err := escrow.Refund(now); err != nil {
			return err
		}

		order, err = tx.Orders().LockByID(ctx, escrow.OrderID)
		if err != nil {
			return err
		}
		if err := order.MarkRefunded(now); err != nil {
			return err
		}

		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"escrow_id": escrow.ID,
		"order_id":  order.ID,
		"admin_id":  input.AdminID,
	}).Warn("escrow возвращён покупателю")

	data := map[string]any{"order_id": order.ID, "escrow_id": escrow.ID}
	event.PublishAll(uc.deps.Publisher, []event.Message{
		{UserID: order.SellerID, Name: event.EscrowRefunded, Data: data},
		{UserID: order.BuyerID, Name: event.EscrowRefunded, Data: data},
	})
	return escrow, nil
}
