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

type ConfirmWorkInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
	Done    bool
}

type ConfirmWorkResult struct {
	Order  *entity.Order
	Escrow *entity.Escrow
}

type ConfirmWorkUseCase struct {
	deps Deps
}

func NewConfirmWorkUseCase(deps Deps) *ConfirmWorkUseCase {
	return &ConfirmWorkUseCase{deps: deps.withDefaults()}
}

func (uc *ConfirmWorkUseCase) Execute(ctx context.Context, input ConfirmWorkInput) (*ConfirmWorkResult, error) {
	var (
		result   ConfirmWorkResult
		party    entity.Party
		messages []event.Message
	)

	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		order, err := tx.Orders().LockByID(ctx, input.OrderID)
		if err != nil {
			return err
		}

		var ok bool
		party, ok = order.PartyOf(input.ActorID)
		if !ok {
			return apperror.ErrNotOrderParty
		}

		// Подтверждение работы до оплаты запрещено обеим сторонам.
		if !order.IsPaidCompleted() {
			return apperror.ErrOrderNotPaid
		}
		if order.EscrowID == nil {
			return apperror.ErrEscrowMissing
		}

		escrow, err := tx.Escrows().LockByOrderID(ctx, order.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.ErrEscrowMissing
			}
			return err
		}

		now := uc.deps.Clock()
		wasReleasable := escrow.IsReleasable()
		if err := escrow.Confirm(party, input.Done, now); err != nil {
			return err
		}

		result = ConfirmWorkResult{Order: order, Escrow: escrow}
		if escrow.Status == valueobject.EscrowStatusReleased {
			return nil
		}

		if err := order.SetWorkStatus(party, input.Done, now); err != nil {
			return err
		}
		if err := tx.Orders().Update(ctx, order); err != nil {
			return err
		}
		if err := tx.Escrows().Update(ctx, escrow); err != nil {
			return err
		}

		messages = confirmMessages(order, escrow, party, input.Done, !wasReleasable && escrow.IsReleasable())
		return nil
	})
	if err != nil {
		reportIntegrity("confirm_work", err, logrus.Fields{"order_id": input.OrderID})
		return nil, err
	}

	metrics.Settlement().ObserveWorkConfirmation(string(party), input.Done)
	logger.Log.WithFields(logrus.Fields{
		"order_id":      result.Order.ID,
		"escrow_id":     result.Escrow.ID,
		"party":         party,
		"work_status":   input.Done,
		"escrow_status": result.Escrow.Status,
	}).Info("статус работы обновлён")

	event.PublishAll(uc.deps.Publisher, messages)
	return &result, nil
}

func confirmMessages(order *entity.Order, escrow *entity.Escrow, party entity.Party, done, becameReleasable bool) []event.Message {
	counterparty := order.BuyerID
	if party == entity.PartyBuyer {
		counterparty = order.SellerID
	}

	messages := []event.Message{{
		UserID: counterparty,
		Name:   event.EscrowWorkConfirmed,
		Data:   map[string]any{"order_id": order.ID, "party": party, "work_status": done},
	}}

	if becameReleasable {
		data := map[string]any{"order_id": order.ID, "escrow_id": escrow.ID}
		messages = append(messages,
			event.Message{UserID: order.SellerID, Name: event.EscrowReadyForRelease, Data: data},
			event.Message{UserID: order.BuyerID, Name: event.EscrowReadyForRelease, Data: data},
		)
	}
	return messages
}
