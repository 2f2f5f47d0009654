package settlement

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/metrics"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type OpenEscrowResult struct {
	Escrow *entity.Escrow
	Order  *entity.Order
	Events []event.Message
}

// OpenEscrow выполняется внутри транзакции подтверждения платежа.
// Для заказа по услуге создаёт escrow в holding, для заказа по ставке активирует зарезервированный.
// Повторный вызов для того же заказа возвращает ошибку целостности.
func OpenEscrow(ctx context.Context, tx repository.Tx, payment *entity.Payment, now time.Time) (*OpenEscrowResult, error) {
	if !payment.IsSuccess() {
		return nil, apperror.ErrPaymentNotSuccess
	}

	order, err := tx.Orders().LockByID(ctx, payment.OrderID)
	if err != nil {
		return nil, err
	}

	escrow, err := openOrActivate(ctx, tx, order, payment, now)
	if err != nil {
		reportIntegrity("open_escrow", err, logrus.Fields{"order_id": order.ID, "payment_id": payment.ID})
		return nil, err
	}

	if err := order.MarkPaid(escrow.ID, now); err != nil {
		return nil, err
	}
	if err := tx.Orders().Update(ctx, order); err != nil {
		return nil, err
	}

	if order.Origin == valueobject.OrderOriginBid && order.ProjectID != nil {
		project, err := tx.Projects().LockByID(ctx, *order.ProjectID)
		if err != nil {
			return nil, err
		}
		if err := project.StartWork(now); err != nil {
			return nil, err
		}
		if err := tx.Projects().Update(ctx, project); err != nil {
			return nil, err
		}
	}

	metrics.Settlement().ObserveEscrowOpened(string(order.Origin))
	logger.Log.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"escrow_id": escrow.ID,
		"amount":    escrow.Amount,
		"origin":    order.Origin,
	}).Info("escrow открыт")

	data := map[string]any{"order_id": order.ID, "escrow_id": escrow.ID, "amount": escrow.Amount}
	return &OpenEscrowResult{
		Escrow: escrow,
		Order:  order,
		Events: []event.Message{
			{UserID: order.SellerID, Name: event.EscrowOpened, Data: data},
			{UserID: order.BuyerID, Name: event.EscrowOpened, Data: data},
		},
	}, nil
}

func openOrActivate(ctx context.Context, tx repository.Tx, order *entity.Order, payment *entity.Payment, now time.Time) (*entity.Escrow, error) {
	if order.EscrowID == nil {
		escrow := entity.NewHoldingEscrow(order.ID, payment.Amount, now)
		if err := tx.Escrows().Create(ctx, escrow); err != nil {
			return nil, err
		}
		return escrow, nil
	}

	escrow, err := tx.Escrows().LockByID(ctx, *order.EscrowID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrEscrowMissing
		}
		return nil, err
	}
	if err := escrow.Activate(now); err != nil {
		return nil, err
	}
	if err := tx.Escrows().Update(ctx, escrow); err != nil {
		return nil, err
	}
	return escrow, nil
}
