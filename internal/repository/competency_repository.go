package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"assessment-service/internal/models"

	"github.com/google/uuid"
)

type CompetencyRepository interface {
	Create(ctx context.Context, competency *models.Competency) error
	GetByID(ctx context.Context, id string) (*models.Competency, error)
	List(ctx context.Context) ([]*models.Competency, error)
	Update(ctx context.Context, competency *models.Competency) error
	Delete(ctx context.Context, id string) error
}

type competencyRepository struct {
	db *sql.DB
}

func NewCompetencyRepository(db *sql.DB) CompetencyRepository {
	return &competencyRepository{db: db}
}

func (r *competencyRepository) Create(ctx context.Context, competency *models.Competency) error {
	competency.ID = uuid.New().String()
	competency.CreatedAt = time.Now()

	query := `
		INSERT INTO competencies (id, name, description, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		competency.ID,
		competency.Name,
		competency.Description,
		competency.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create competency: %w", err)
	}
	return nil
}

func (r *competencyRepository) GetByID(ctx context.Context, id string) (*models.Competency, error) {
	query := `SELECT id, name, description, created_at FROM competencies WHERE id = $1`

	competency := &models.Competency{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&competency.ID,
		&competency.Name,
		&competency.Description,
		&competency.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("competency: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get competency: %w", err)
	}
	return competency, nil
}

func (r *competencyRepository) List(ctx context.Context) ([]*models.Competency, error) {
	query := `SELECT id, name, description, created_at FROM competencies ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var competencies []*models.Competency
	for rows.Next() {
		competency := &models.Competency{}
		err := rows.Scan(
			&competency.ID,
			&competency.Name,
			&competency.Description,
			&competency.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		competencies = append(competencies, competency)
	}
	return competencies, rows.Err()
}

func (r *competencyRepository) Update(ctx context.Context, competency *models.Competency) error {
	query := `UPDATE competencies SET name = $1, description = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, competency.Name, competency.Description, competency.ID)
	if err != nil {
		return fmt.Errorf("failed to update competency: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("competency: %w", models.ErrNotFound)
	}
	return nil
}

func (r *competencyRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM competencies WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete competency: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("competency: %w", models.ErrNotFound)
	}
	return nil
}
