package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/entity"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/domain/valueobject"
	"github.com/Sujal-Tuladhar/NepworkFYP-sub000/internal/pkg/apperror"
)

type projectRow struct {
	ID                   uuid.UUID      `db:"id"`
	ClientID             uuid.UUID      `db:"client_id"`
	Title                string         `db:"title"`
	Description          string         `db:"description"`
	BudgetMin            float64        `db:"budget_min"`
	BudgetMax            float64        `db:"budget_max"`
	Category             string         `db:"category"`
	ExpectedDurationDays int            `db:"expected_duration_days"`
	Attachments          pq.StringArray `db:"attachments"`
	Status               string         `db:"status"`
	SelectedBidID        *uuid.UUID     `db:"selected_bid_id"`
	ExpiresAt            time.Time      `db:"expires_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (r projectRow) toEntity() *entity.Project {
	budget, _ := valueobject.NewBudget(r.BudgetMin, r.BudgetMax)
	return &entity.Project{
		ID:                   r.ID,
		ClientID:             r.ClientID,
		Title:                r.Title,
		Description:          r.Description,
		Budget:               budget,
		Category:             r.Category,
		ExpectedDurationDays: r.ExpectedDurationDays,
		Attachments:          []string(r.Attachments),
		Status:               valueobject.ProjectStatus(r.Status),
		SelectedBidID:        r.SelectedBidID,
		ExpiresAt:            r.ExpiresAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

func projectRowFrom(p *entity.Project) projectRow {
	return projectRow{
		ID:                   p.ID,
		ClientID:             p.ClientID,
		Title:                p.Title,
		Description:          p.Description,
		BudgetMin:            p.Budget.Min.Amount,
		BudgetMax:            p.Budget.Max.Amount,
		Category:             p.Category,
		ExpectedDurationDays: p.ExpectedDurationDays,
		Attachments:          pq.StringArray(nonNil(p.Attachments)),
		Status:               string(p.Status),
		SelectedBidID:        p.SelectedBidID,
		ExpiresAt:            p.ExpiresAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

const projectColumns = `id, client_id, title, description, budget_min, budget_max, category,
	expected_duration_days, attachments, status, selected_bid_id, expires_at, created_at, updated_at`

type projectRepository struct {
	q sqlx.ExtContext
}

func (r *projectRepository) Create(ctx context.Context, project *entity.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (:id, :client_id, :title, :description, :budget_min, :budget_max, :category,
		        :expected_duration_days, :attachments, :status, :selected_bid_id, :expires_at, :created_at, :updated_at)
	`
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, projectRowFrom(project)); err != nil {
		return writeError(err, "не удалось создать проект")
	}
	return nil
}

func (r *projectRepository) Update(ctx context.Context, project *entity.Project) error {
	query := `
		UPDATE projects
		SET status = :status, selected_bid_id = :selected_bid_id, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := sqlx.NamedExecContext(ctx, r.q, query, projectRowFrom(project))
	if err != nil {
		return writeError(err, "не удалось обновить проект")
	}
	return expectOne(res, apperror.ErrProjectNotFound, "не удалось обновить проект")
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	return r.get(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
}

func (r *projectRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.Project, error) {
	return r.get(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id)
}

func (r *projectRepository) get(ctx context.Context, query string, args ...any) (*entity.Project, error) {
	var row projectRow
	if err := sqlx.GetContext(ctx, r.q, &row, query, args...); err != nil {
		return nil, readError(err, apperror.ErrProjectNotFound, "не удалось получить проект")
	}
	return row.toEntity(), nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
