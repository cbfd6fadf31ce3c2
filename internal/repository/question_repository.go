package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"assessment-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id string) (*models.Question, error)
	GetActiveByLevels(ctx context.Context, levels []models.Level) ([]*models.Question, error)
	ListByCompetency(ctx context.Context, competencyID string) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Deactivate(ctx context.Context, id string) error
}

type questionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) QuestionRepository {
	return &questionRepository{db: db}
}

const questionColumns = `id, competency_id, level, text, options, correct_option_index, is_active, created_at, updated_at`

func scanQuestionRow(scan func(dest ...any) error) (*models.Question, error) {
	question := &models.Question{}
	var optionsJSON []byte
	err := scan(
		&question.ID,
		&question.CompetencyID,
		&question.Level,
		&question.Text,
		&optionsJSON,
		&question.CorrectOptionIndex,
		&question.IsActive,
		&question.CreatedAt,
		&question.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(optionsJSON, &question.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return question, nil
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	question.ID = uuid.New().String()
	question.CreatedAt = time.Now()
	question.UpdatedAt = question.CreatedAt

	optionsJSON, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	query := `
		INSERT INTO questions (id, competency_id, level, text, options, correct_option_index, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = r.db.ExecContext(ctx, query,
		question.ID,
		question.CompetencyID,
		question.Level,
		question.Text,
		optionsJSON,
		question.CorrectOptionIndex,
		question.IsActive,
		question.CreatedAt,
		question.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return fmt.Errorf("competency %s: %w", question.CompetencyID, models.ErrNotFound)
		}
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id string) (*models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`

	question, err := scanQuestionRow(r.db.QueryRowContext(ctx, query, id).Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("question: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return question, nil
}

// GetActiveByLevels returns the active question pool for the given
// levels ordered by competency then level then id, so repeated calls
// observe the same sequence.
func (r *questionRepository) GetActiveByLevels(ctx context.Context, levels []models.Level) ([]*models.Question, error) {
	levelStrs := make([]string, len(levels))
	for i, l := range levels {
		levelStrs[i] = string(l)
	}

	query := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE is_active = TRUE AND level = ANY($1)
		ORDER BY competency_id ASC, level ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(levelStrs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		question, err := scanQuestionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("question pool for levels %v: %w", levels, models.ErrNotFound)
	}
	return questions, nil
}

func (r *questionRepository) ListByCompetency(ctx context.Context, competencyID string) ([]*models.Question, error) {
	query := `
		SELECT ` + questionColumns + `
		FROM questions
		WHERE competency_id = $1
		ORDER BY level ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, competencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		question, err := scanQuestionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}

// Update rewrites question content. In-progress sessions are not
// touched: responses reference the question id and scoring reads the
// correct index at answer time, so edits affect only future sessions.
func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	optionsJSON, err := json.Marshal(question.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	query := `
		UPDATE questions
		SET competency_id = $1, level = $2, text = $3, options = $4, correct_option_index = $5, is_active = $6, updated_at = $7
		WHERE id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		question.CompetencyID,
		question.Level,
		question.Text,
		optionsJSON,
		question.CorrectOptionIndex,
		question.IsActive,
		time.Now(),
		question.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("question: %w", models.ErrNotFound)
	}
	return nil
}

func (r *questionRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE questions SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate question: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("question: %w", models.ErrNotFound)
	}
	return nil
}
