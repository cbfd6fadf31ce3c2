package service

import (
	"context"
	"errors"
	"testing"

	"assessment-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCompetencyRepository struct {
	createFunc  func(ctx context.Context, competency *models.Competency) error
	getByIDFunc func(ctx context.Context, id string) (*models.Competency, error)
	listFunc    func(ctx context.Context) ([]*models.Competency, error)
	updateFunc  func(ctx context.Context, competency *models.Competency) error
	deleteFunc  func(ctx context.Context, id string) error
}

func (m *mockCompetencyRepository) Create(ctx context.Context, competency *models.Competency) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, competency)
	}
	return errors.New("not implemented")
}

func (m *mockCompetencyRepository) GetByID(ctx context.Context, id string) (*models.Competency, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCompetencyRepository) List(ctx context.Context) ([]*models.Competency, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *mockCompetencyRepository) Update(ctx context.Context, competency *models.Competency) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, competency)
	}
	return errors.New("not implemented")
}

func (m *mockCompetencyRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func validQuestion() *models.Question {
	return &models.Question{
		CompetencyID:       "c1",
		Level:              models.LevelB1,
		Text:               "Pick one",
		Options:            []string{"a", "b", "c", "d"},
		CorrectOptionIndex: 1,
	}
}

func TestQuestionService_CreateQuestion(t *testing.T) {
	ctx := context.Background()

	t.Run("valid question is created", func(t *testing.T) {
		competencyRepo := &mockCompetencyRepository{}
		competencyRepo.getByIDFunc = func(ctx context.Context, id string) (*models.Competency, error) {
			return &models.Competency{ID: id, Name: "Grammar"}, nil
		}
		questionRepo := &mockQuestionRepository{}
		questionRepo.createFunc = func(ctx context.Context, question *models.Question) error {
			return nil
		}

		svc := NewQuestionService(questionRepo, competencyRepo)

		require.NoError(t, svc.CreateQuestion(ctx, validQuestion()))
	})

	t.Run("unknown competency is rejected", func(t *testing.T) {
		competencyRepo := &mockCompetencyRepository{}
		competencyRepo.getByIDFunc = func(ctx context.Context, id string) (*models.Competency, error) {
			return nil, models.ErrNotFound
		}

		svc := NewQuestionService(&mockQuestionRepository{}, competencyRepo)

		assert.ErrorIs(t, svc.CreateQuestion(ctx, validQuestion()), models.ErrNotFound)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(q *models.Question)
		}{
			{"empty text", func(q *models.Question) { q.Text = "" }},
			{"unknown level", func(q *models.Question) { q.Level = "Z9" }},
			{"too few options", func(q *models.Question) { q.Options = []string{"a", "b", "c"} }},
			{"too many options", func(q *models.Question) { q.Options = append(q.Options, "e") }},
			{"blank option", func(q *models.Question) { q.Options[2] = "" }},
			{"index out of range", func(q *models.Question) { q.CorrectOptionIndex = 4 }},
			{"negative index", func(q *models.Question) { q.CorrectOptionIndex = -1 }},
		}

		svc := NewQuestionService(&mockQuestionRepository{}, &mockCompetencyRepository{})

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				question := validQuestion()
				tt.mutate(question)

				assert.ErrorIs(t, svc.CreateQuestion(ctx, question), models.ErrValidation)
			})
		}
	})
}

func TestQuestionService_Competencies(t *testing.T) {
	ctx := context.Background()

	t.Run("nameless competency is rejected", func(t *testing.T) {
		svc := NewQuestionService(&mockQuestionRepository{}, &mockCompetencyRepository{})

		err := svc.CreateCompetency(ctx, &models.Competency{Description: "no name"})

		assert.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("delete passes through", func(t *testing.T) {
		competencyRepo := &mockCompetencyRepository{}
		competencyRepo.deleteFunc = func(ctx context.Context, id string) error {
			assert.Equal(t, "c1", id)
			return nil
		}

		svc := NewQuestionService(&mockQuestionRepository{}, competencyRepo)

		assert.NoError(t, svc.DeleteCompetency(ctx, "c1"))
	})
}
