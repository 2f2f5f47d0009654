package settlement

import (
	"context"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type GetEscrowUseCase struct {
	deps Deps
}

func NewGetEscrowUseCase(deps Deps) *GetEscrowUseCase {
	return &GetEscrowUseCase{deps: deps.withDefaults()}
}

// Execute возвращает escrow заказа. Доступно сторонам заказа и администратору.
func (uc *GetEscrowUseCase) Execute(ctx context.Context, orderID, actorID uuid.UUID, role valueobject.Role) (*entity.Escrow, error) {
	var escrow *entity.Escrow
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		order, err := tx.Orders().GetByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.IsParty(actorID) && !role.IsAdmin() {
			return apperror.ErrNotOrderParty
		}

		escrow, err = tx.Escrows().GetByOrderID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return escrow, nil
}

type ListReleasableUseCase struct {
	deps Deps
}

func NewListReleasableUseCase(deps Deps) *ListReleasableUseCase {
	return &ListReleasableUseCase{deps: deps.withDefaults()}
}

func (uc *ListReleasableUseCase) Execute(ctx context.Context, role valueobject.Role) ([]*entity.Escrow, error) {
	if !role.IsAdmin() {
		return nil, apperror.ErrAdminOnly
	}

	var escrows []*entity.Escrow
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		escrows, err = tx.Escrows().ListByStatus(ctx, valueobject.EscrowStatusWaitingToRelease)
		return err
	})
	if err != nil {
		return nil, err
	}
	return escrows, nil
}
