package bidding

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

type SubmitBidInput struct {
	ProjectID    uuid.UUID
	BidderID     uuid.UUID
	Role         valueobject.Role
	Amount       float64
	Proposal     string
	DeliveryDays int
	Attachments  []string
}

type SubmitBidUseCase struct {
	deps Deps
}

func NewSubmitBidUseCase(deps Deps) *SubmitBidUseCase {
	return &SubmitBidUseCase{deps: deps.withDefaults()}
}

func (uc *SubmitBidUseCase) Execute(ctx context.Context, input SubmitBidInput) (*entity.Bid, error) {
	if !input.Role.CanSell() {
		return nil, apperror.ErrNotSeller
	}

	var (
		bid      *entity.Bid
		clientID uuid.UUID
	)
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		project, err := tx.Projects().LockByID(ctx, input.ProjectID)
		if err != nil {
			return err
		}
		if project.IsOwnedBy(input.BidderID) {
			return apperror.ErrOwnProject
		}

		now := uc.deps.Clock()
		if err := project.EnsureOpen(now); err != nil {
			return err
		}

		// Явная проверка даёт понятную ошибку; уникальный индекс страхует от гонки.
		existing, err := tx.Bids().FindPendingByBidder(ctx, project.ID, input.BidderID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.ErrDuplicateBid
		}

		bid, err = entity.NewBid(project.ID, input.BidderID, input.Amount, input.Proposal, input.DeliveryDays, input.Attachments, now)
		if err != nil {
			return err
		}
		clientID = project.ClientID
		return tx.Bids().Create(ctx, bid)
	})
	if err != nil {
		return nil, err
	}

	metrics.Settlement().ObserveBidSubmitted()
	logger.Log.WithFields(logrus.Fields{
		"project_id": bid.ProjectID,
		"bid_id":     bid.ID,
		"bidder_id":  bid.BidderID,
		"amount":     bid.Amount,
	}).Info("ставка создана")

	uc.deps.Publisher.Publish(clientID, event.BidSubmitted, map[string]any{
		"project_id": bid.ProjectID,
		"bid_id":     bid.ID,
		"amount":     bid.Amount,
	})
	return bid, nil
}

type WithdrawBidUseCase struct {
	deps Deps
}

func NewWithdrawBidUseCase(deps Deps) *WithdrawBidUseCase {
	return &WithdrawBidUseCase{deps: deps.withDefaults()}
}

func (uc *WithdrawBidUseCase) Execute(ctx context.Context, bidID, actorID uuid.UUID) (*entity.Bid, error) {
	var bid *entity.Bid
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		bid, err = tx.Bids().GetByID(ctx, bidID)
		if err != nil {
			return err
		}
		if !bid.IsOwnedBy(actorID) {
			return apperror.ErrNotBidOwner
		}

		// Блокировка проекта сериализует отзыв с выбором победителя.
		if _, err := tx.Projects().LockByID(ctx, bid.ProjectID); err != nil {
			return err
		}
		bid, err = tx.Bids().GetByID(ctx, bidID)
		if err != nil {
			return err
		}

		if err := bid.Withdraw(uc.deps.Clock()); err != nil {
			return err
		}
		return tx.Bids().Update(ctx, bid)
	})
	if err != nil {
		return nil, err
	}
	return bid, nil
}

type ListProjectBidsUseCase struct {
	deps Deps
}

func NewListProjectBidsUseCase(deps Deps) *ListProjectBidsUseCase {
	return &ListProjectBidsUseCase{deps: deps.withDefaults()}
}

// Execute: клиент проекта и администратор видят все ставки, остальные — только свои.
func (uc *ListProjectBidsUseCase) Execute(ctx context.Context, projectID, actorID uuid.UUID, role valueobject.Role) ([]*entity.Bid, error) {
	var result []*entity.Bid
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		project, err := tx.Projects().GetByID(ctx, projectID)
		if err != nil {
			return err
		}
		bids, err := tx.Bids().ListByProject(ctx, projectID)
		if err != nil {
			return err
		}

		if project.IsOwnedBy(actorID) || role.IsAdmin() {
			result = bids
			return nil
		}
		result = make([]*entity.Bid, 0)
		for _, b := range bids {
			if b.IsOwnedBy(actorID) {
				result = append(result, b)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
