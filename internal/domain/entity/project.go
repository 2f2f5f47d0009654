package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/validation"
)

// DefaultProjectTTL — срок приёма ставок, если клиент не указал дату истечения.
const DefaultProjectTTL = 30 * 24 * time.Hour

type Project struct {
	ID                   uuid.UUID
	ClientID             uuid.UUID
	Title                string
	Description          string
	Budget               valueobject.Budget
	Category             string
	ExpectedDurationDays int
	Attachments          []string
	Status               valueobject.ProjectStatus
	SelectedBidID        *uuid.UUID
	ExpiresAt            time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type NewProjectParams struct {
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

func NewProject(p NewProjectParams, now time.Time) (*Project, error) {
	if err := validation.ValidateProjectTitle(p.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidateProjectDescription(p.Description); err != nil {
		return nil, err
	}
	if err := validation.ValidateCategory(p.Category); err != nil {
		return nil, err
	}
	if err := validation.ValidateAttachments(p.Attachments); err != nil {
		return nil, err
	}
	if p.ExpectedDurationDays < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "срок выполнения не может быть отрицательным")
	}

	budget, err := valueobject.NewBudget(p.BudgetMin, p.BudgetMax)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(DefaultProjectTTL)
	if p.ExpiresAt != nil {
		if !p.ExpiresAt.After(now) {
			return nil, apperror.New(apperror.ErrCodeValidation, "дата истечения должна быть в будущем")
		}
		expiresAt = *p.ExpiresAt
	}

	attachments := p.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	return &Project{
		ID:                   uuid.New(),
		ClientID:             p.ClientID,
		Title:                p.Title,
		Description:          p.Description,
		Budget:               budget,
		Category:             p.Category,
		ExpectedDurationDays: p.ExpectedDurationDays,
		Attachments:          attachments,
		Status:               valueobject.ProjectStatusOpen,
		ExpiresAt:            expiresAt,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (p *Project) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// EnsureOpen проверяет, что проект принимает ставки и выбор победителя.
func (p *Project) EnsureOpen(now time.Time) error {
	if p.Status != valueobject.ProjectStatusOpen {
		return apperror.ErrProjectNotOpen
	}
	if p.IsExpired(now) {
		return apperror.ErrProjectExpired
	}
	return nil
}

func (p *Project) Award(bidID uuid.UUID, now time.Time) error {
	if err := p.EnsureOpen(now); err != nil {
		return err
	}
	if p.SelectedBidID != nil {
		return apperror.ErrBidAlreadyAccepted
	}
	p.Status = valueobject.ProjectStatusAwarded
	p.SelectedBidID = &bidID
	p.UpdatedAt = now
	return nil
}

func (p *Project) StartWork(now time.Time) error {
	return p.transition(valueobject.ProjectStatusInProgress, now)
}

func (p *Project) Complete(now time.Time) error {
	return p.transition(valueobject.ProjectStatusCompleted, now)
}

func (p *Project) Cancel(now time.Time) error {
	if p.Status != valueobject.ProjectStatusOpen {
		return apperror.ErrProjectNotOpen
	}
	return p.transition(valueobject.ProjectStatusCancelled, now)
}

func (p *Project) transition(to valueobject.ProjectStatus, now time.Time) error {
	if !p.Status.CanTransitionTo(to) {
		return apperror.ErrInvalidTransition
	}
	p.Status = to
	p.UpdatedAt = now
	return nil
}

func (p *Project) IsOwnedBy(userID uuid.UUID) bool {
	return p.ClientID == userID
}
