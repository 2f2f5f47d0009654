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
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/metrics"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type ReleaseInput struct {
	EscrowID uuid.UUID
	AdminID  uuid.UUID
	Role     valueobject.Role
}

type ReleaseResult struct {
	Escrow *entity.Escrow
	Order  *entity.Order
	Payout *entity.Payout
}

type ReleaseEscrowUseCase struct {
	deps Deps
}

func NewReleaseEscrowUseCase(deps Deps) *ReleaseEscrowUseCase {
	return &ReleaseEscrowUseCase{deps: deps.withDefaults()}
}

// Execute выплачивает средства продавцу. Возможен только из waitingToRelease и только один раз.
func (uc *ReleaseEscrowUseCase) Execute(ctx context.Context, input ReleaseInput) (*ReleaseResult, error) {
	if !input.Role.IsAdmin() {
		return nil, apperror.ErrAdminOnly
	}

	var result ReleaseResult
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		// Порядок блокировок как в ConfirmWork и OpenEscrow: сначала заказ, затем escrow.
		found, err := tx.Escrows().GetByID(ctx, input.EscrowID)
		if err != nil {
			return err
		}
		order, err := tx.Orders().LockByID(ctx, found.OrderID)
		if err != nil {
			return err
		}
		escrow, err := tx.Escrows().LockByID(ctx, found.ID)
		if err != nil {
			return err
		}

		now := uc.deps.Clock()
		if err := escrow.Release(input.AdminID, now); err != nil {
			return err
		}
		if err := order.Complete(now); err != nil {
			return err
		}

		if order.ProjectID != nil {
			project, err := tx.Projects().LockByID(ctx, *order.ProjectID)
			if err != nil {
				return err
			}
			if err := project.Complete(now); err != nil {
				return err
			}
			if err := tx.Projects().Update(ctx, project); err != nil {
				return err
			}
		}

		payout, err := entity.NewPayout(escrow, order)
		if err != nil {
			return err
		}
		if err := tx.Payouts().Create(ctx, payout); err != nil {
			return err
		}
		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}
		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}

		result = ReleaseResult{Escrow: escrow, Order: order, Payout: payout}
		return nil
	})
	if err != nil {
		reportIntegrity("release", err, logrus.Fields{"escrow_id": input.EscrowID})
		return nil, err
	}

	metrics.Settlement().ObserveRelease(result.Payout.Amount)
	logger.Log.WithFields(logrus.Fields{
		"escrow_id": result.Escrow.ID,
		"order_id":  result.Order.ID,
		"payout_id": result.Payout.ID,
		"amount":    result.Payout.Amount,
		"admin_id":  input.AdminID,
	}).Info("escrow выплачен")

	data := map[string]any{"order_id": result.Order.ID, "escrow_id": result.Escrow.ID, "amount": result.Payout.Amount}
	event.PublishAll(uc.deps.Publisher, []event.Message{
		{UserID: result.Order.SellerID, Name: event.EscrowReleased, Data: data},
		{UserID: result.Order.BuyerID, Name: event.EscrowReleased, Data: data},
	})
	return &result, nil
}
