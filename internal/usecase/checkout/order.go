package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type CreateGigOrderInput struct {
	BuyerID       uuid.UUID
	GigID         uuid.UUID
	PaymentMethod string
}

type CreateGigOrderUseCase struct {
	deps Deps
}

func NewCreateGigOrderUseCase(deps Deps) *CreateGigOrderUseCase {
	return &CreateGigOrderUseCase{deps: deps.withDefaults()}
}

func (uc *CreateGigOrderUseCase) Execute(ctx context.Context, input CreateGigOrderInput) (*entity.Order, error) {
	method, err := valueobject.NewGateway(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	var order *entity.Order
	err = uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		gig, err := tx.Gigs().GetByID(ctx, input.GigID)
		if err != nil {
			return err
		}
		order, err = entity.NewGigOrder(gig, input.BuyerID, method, uc.deps.Clock())
		if err != nil {
			return err
		}
		return tx.Orders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"order_id": order.ID,
		"gig_id":   input.GigID,
		"buyer_id": order.BuyerID,
		"price":    order.Price,
	}).Info("заказ по услуге создан")
	return order, nil
}

type GetOrderUseCase struct {
	deps Deps
}

func NewGetOrderUseCase(deps Deps) *GetOrderUseCase {
	return &GetOrderUseCase{deps: deps.withDefaults()}
}

func (uc *GetOrderUseCase) Execute(ctx context.Context, orderID, actorID uuid.UUID, role valueobject.Role) (*entity.Order, error) {
	var order *entity.Order
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		order, err = tx.Orders().GetByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !order.IsParty(actorID) && !role.IsAdmin() {
		return nil, apperror.ErrNotOrderParty
	}
	return order, nil
}

type DeleteOrderUseCase struct {
	deps Deps
}

func NewDeleteOrderUseCase(deps Deps) *DeleteOrderUseCase {
	return &DeleteOrderUseCase{deps: deps.withDefaults()}
}

// Execute удаляет заказ до оплаты. Оплаченные заказы и заказы с escrow не удаляются.
func (uc *DeleteOrderUseCase) Execute(ctx context.Context, orderID, buyerID uuid.UUID) error {
	return uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		order, err := tx.Orders().LockByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.EnsureDeletableBy(buyerID); err != nil {
			return err
		}
		return tx.Orders().Delete(ctx, order.ID)
	})
}
