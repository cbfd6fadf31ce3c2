package repository

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"assessment-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var questionCols = []string{
	"id", "competency_id", "level", "text", "options", "correct_option_index",
	"is_active", "created_at", "updated_at",
}

func questionRow(id, competencyID string, level models.Level) []driver.Value {
	return []driver.Value{
		id, competencyID, string(level), "Pick one",
		[]byte(`["a","b","c","d"]`), 2, true, time.Now(), time.Now(),
	}
}

func TestQuestionRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("assigns an id and inserts", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO questions")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewQuestionRepository(db)
		question := &models.Question{
			CompetencyID:       "c1",
			Level:              models.LevelA1,
			Text:               "Pick one",
			Options:            []string{"a", "b", "c", "d"},
			CorrectOptionIndex: 2,
			IsActive:           true,
		}

		err = repo.Create(ctx, question)

		require.NoError(t, err)
		assert.NotEmpty(t, question.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown competency is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO questions")).
			WillReturnError(&pq.Error{Code: "23503"})

		repo := NewQuestionRepository(db)

		err = repo.Create(ctx, &models.Question{
			CompetencyID: "ghost",
			Level:        models.LevelA1,
			Options:      []string{"a", "b", "c", "d"},
		})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestQuestionRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found with decoded options", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE id = $1")).
			WithArgs("q1").
			WillReturnRows(sqlmock.NewRows(questionCols).AddRow(questionRow("q1", "c1", models.LevelA1)...))

		repo := NewQuestionRepository(db)

		question, err := repo.GetByID(ctx, "q1")

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, question.Options)
		assert.Equal(t, models.LevelA1, question.Level)
	})

	t.Run("missing question is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM questions WHERE id = $1")).
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(questionCols))

		repo := NewQuestionRepository(db)

		_, err = repo.GetByID(ctx, "ghost")

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestQuestionRepository_GetActiveByLevels(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the ordered pool", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(questionCols).
			AddRow(questionRow("q1", "c1", models.LevelA1)...).
			AddRow(questionRow("q2", "c1", models.LevelA2)...).
			AddRow(questionRow("q3", "c2", models.LevelA1)...)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE AND level = ANY($1)")).
			WillReturnRows(rows)

		repo := NewQuestionRepository(db)

		questions, err := repo.GetActiveByLevels(ctx, []models.Level{models.LevelA1, models.LevelA2})

		require.NoError(t, err)
		require.Len(t, questions, 3)
		assert.Equal(t, "q1", questions[0].ID)
		assert.Equal(t, "q3", questions[2].ID)
	})

	t.Run("empty pool is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("WHERE is_active = TRUE AND level = ANY($1)")).
			WillReturnRows(sqlmock.NewRows(questionCols))

		repo := NewQuestionRepository(db)

		_, err = repo.GetActiveByLevels(ctx, []models.Level{models.LevelC1, models.LevelC2})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestQuestionRepository_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("missing question is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE questions")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewQuestionRepository(db)

		err = repo.Update(ctx, &models.Question{
			ID:      "ghost",
			Level:   models.LevelA1,
			Options: []string{"a", "b", "c", "d"},
		})

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestQuestionRepository_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("deactivates an existing question", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE questions SET is_active = FALSE")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewQuestionRepository(db)

		assert.NoError(t, repo.Deactivate(ctx, "q1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing question is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(regexp.QuoteMeta("UPDATE questions SET is_active = FALSE")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewQuestionRepository(db)

		assert.ErrorIs(t, repo.Deactivate(ctx, "ghost"), models.ErrNotFound)
	})
}
