package bidding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/event"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/repository"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/logger"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type CreateProjectInput struct {
	ClientID             uuid.UUID
	Title                string
	Description          string
	BudgetMin            float64
	BudgetMax            float64
	Category             string
	ExpectedDurationDays int
	Attachments          []string
	ExpiresAt            *time.Time
}

type CreateProjectUseCase struct {
	deps Deps
}

func NewCreateProjectUseCase(deps Deps) *CreateProjectUseCase {
	return &CreateProjectUseCase{deps: deps.withDefaults()}
}

func (uc *CreateProjectUseCase) Execute(ctx context.Context, input CreateProjectInput) (*entity.Project, error) {
	project, err := entity.NewProject(entity.NewProjectParams{
		ClientID:             input.ClientID,
		Title:                input.Title,
		Description:          input.Description,
		BudgetMin:            input.BudgetMin,
		BudgetMax:            input.BudgetMax,
		Category:             input.Category,
		ExpectedDurationDays: input.ExpectedDurationDays,
		Attachments:          input.Attachments,
		ExpiresAt:            input.ExpiresAt,
	}, uc.deps.Clock())
	if err != nil {
		return nil, err
	}

	err = uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.Projects().Create(ctx, project)
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

type GetProjectUseCase struct {
	deps Deps
}

func NewGetProjectUseCase(deps Deps) *GetProjectUseCase {
	return &GetProjectUseCase{deps: deps.withDefaults()}
}

func (uc *GetProjectUseCase) Execute(ctx context.Context, projectID uuid.UUID) (*entity.Project, error) {
	var project *entity.Project
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		project, err = tx.Projects().GetByID(ctx, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

type CancelProjectUseCase struct {
	deps Deps
}

func NewCancelProjectUseCase(deps Deps) *CancelProjectUseCase {
	return &CancelProjectUseCase{deps: deps.withDefaults()}
}

// Execute отменяет открытый проект; все ожидающие ставки отклоняются.
func (uc *CancelProjectUseCase) Execute(ctx context.Context, projectID, actorID uuid.UUID) (*entity.Project, error) {
	var (
		project  *entity.Project
		rejected []uuid.UUID
	)
	err := uc.deps.UoW.Do(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		project, err = tx.Projects().LockByID(ctx, projectID)
		if err != nil {
			return err
		}
		if !project.IsOwnedBy(actorID) {
			return apperror.ErrNotProjectClient
		}

		now := uc.deps.Clock()
		if err := project.Cancel(now); err != nil {
			return err
		}

		rejected, err = pendingBidders(ctx, tx, project.ID, uuid.Nil)
		if err != nil {
			return err
		}
		if _, err := tx.Bids().RejectPendingExcept(ctx, project.ID, uuid.Nil, now); err != nil {
			return err
		}
		return tx.Projects().Update(ctx, project)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"project_id":    project.ID,
		"rejected_bids": len(rejected),
	}).Info("проект отменён")

	messages := make([]event.Message, 0, len(rejected))
	for _, bidder := range rejected {
		messages = append(messages, event.Message{
			UserID: bidder,
			Name:   event.ProjectCancelled,
			Data:   map[string]any{"project_id": project.ID},
		})
	}
	event.PublishAll(uc.deps.Publisher, messages)
	return project, nil
}

func pendingBidders(ctx context.Context, tx repository.Tx, projectID, exceptBidID uuid.UUID) ([]uuid.UUID, error) {
	bids, err := tx.Bids().ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var bidders []uuid.UUID
	for _, b := range bids {
		if b.ID != exceptBidID && b.Status == valueobject.BidStatusPending {
			bidders = append(bidders, b.BidderID)
		}
	}
	return bidders, nil
}
