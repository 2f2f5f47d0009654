package bidding

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/metrics"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type AwardResult struct {
	Project *entity.Project
	Bid     *entity.Bid
	Order   *entity.Order
	Escrow  *entity.Escrow
}

type AwardBidUseCase struct {
	deps Deps
}

func NewAwardBidUseCase(deps Deps) *AwardBidUseCase {
	return &AwardBidUseCase{deps: deps.withDefaults()}
}

// Execute выбирает ставку и сразу превращает её в заказ с зарезервированным escrow.
// Всё выполняется в одной транзакции под блокировкой строки проекта.
func (uc *AwardBidUseCase) Execute(ctx context.Context, bidID, actorID uuid.UUID) (*AwardResult, error) {
	var (
		result   AwardResult
		rejected []uuid.UUID
	)

	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		bid, err := tx.Bids().GetByID(ctx, bidID)
		if err != nil {
			return err
		}

		project, err := tx.Projects().LockByID(ctx, bid.ProjectID)
		if err != nil {
			return err
		}
		if !project.IsOwnedBy(actorID) {
			return apperror.ErrNotProjectClient
		}

		hasAccepted, err := tx.Bids().HasAccepted(ctx, project.ID)
		if err != nil {
			return err
		}
		if hasAccepted || project.SelectedBidID != nil {
			return apperror.ErrBidAlreadyAccepted
		}

		now := uc.deps.Clock()
		if err := project.EnsureOpen(now); err != nil {
			return err
		}

		// Перечитываем ставку уже под блокировкой проекта.
		bid, err = tx.Bids().GetByID(ctx, bidID)
		if err != nil {
			return err
		}
		if err := bid.Accept(now); err != nil {
			return err
		}
		if err := project.Award(bid.ID, now); err != nil {
			return err
		}

		rejected, err = pendingBidders(ctx, tx, project.ID, bid.ID)
		if err != nil {
			return err
		}
		if _, err := tx.Bids().RejectPendingExcept(ctx, project.ID, bid.ID, now); err != nil {
			return err
		}
		if err := tx.Bids().Update(ctx, bid); err != nil {
			return err
		}
		if err := tx.Projects().Update(ctx, project); err != nil {
			return err
		}

		order, escrow, err := convertToOrder(ctx, tx, project, bid)
		if err != nil {
			return err
		}

		result = AwardResult{Project: project, Bid: bid, Order: order, Escrow: escrow}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Settlement().ObserveBidAwarded()
	logger.Log.WithFields(logrus.Fields{
		"project_id":    result.Project.ID,
		"bid_id":        result.Bid.ID,
		"order_id":      result.Order.ID,
		"escrow_id":     result.Escrow.ID,
		"rejected_bids": len(rejected),
	}).Info("ставка выбрана, заказ создан")

	messages := []event.Message{{
		UserID: result.Bid.BidderID,
		Name:   event.BidAwarded,
		Data:   map[string]any{"project_id": result.Project.ID, "bid_id": result.Bid.ID, "order_id": result.Order.ID},
	}}
	for _, bidder := range rejected {
		messages = append(messages, event.Message{
			UserID: bidder,
			Name:   event.BidRejected,
			Data:   map[string]any{"project_id": result.Project.ID},
		})
	}
	event.PublishAll(uc.deps.Publisher, messages)
	return &result, nil
}

// convertToOrder создаёт заказ по выбранной ставке и escrow в статусе Not_Initiated.
// Средства поступят в escrow только после оплаты заказа.
func convertToOrder(ctx context.Context, tx repository.Tx, project *entity.Project, bid *entity.Bid) (*entity.Order, *entity.Escrow, error) {
	now := bid.UpdatedAt

	order, err := entity.NewBidOrder(project, bid, now)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Orders().Create(ctx, order); err != nil {
		return nil, nil, err
	}

	escrow := entity.NewPendingEscrow(order.ID, bid.Amount, now)
	if err := tx.Escrows().Create(ctx, escrow); err != nil {
		return nil, nil, err
	}
	if err := order.AttachEscrow(escrow.ID, now); err != nil {
		return nil, nil, err
	}
	if err := tx.Orders().Update(ctx, order); err != nil {
		return nil, nil, err
	}
	return order, escrow, nil
}
