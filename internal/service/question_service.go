package service

import (
	"context"
	"fmt"

	"assessment-service/internal/models"
	"assessment-service/internal/repository"
)

const RequiredOptionCount = 4

// QuestionService is the writable side of the question bank. Shape
// validation lives here so every write path enforces the same rules.
type QuestionService interface {
	CreateQuestion(ctx context.Context, question *models.Question) error
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	UpdateQuestion(ctx context.Context, question *models.Question) error
	DeactivateQuestion(ctx context.Context, id string) error
	ListByCompetency(ctx context.Context, competencyID string) ([]*models.Question, error)

	CreateCompetency(ctx context.Context, competency *models.Competency) error
	GetCompetency(ctx context.Context, id string) (*models.Competency, error)
	ListCompetencies(ctx context.Context) ([]*models.Competency, error)
	UpdateCompetency(ctx context.Context, competency *models.Competency) error
	DeleteCompetency(ctx context.Context, id string) error
}

type questionService struct {
	questionRepo   repository.QuestionRepository
	competencyRepo repository.CompetencyRepository
}

func NewQuestionService(questionRepo repository.QuestionRepository, competencyRepo repository.CompetencyRepository) QuestionService {
	return &questionService{
		questionRepo:   questionRepo,
		competencyRepo: competencyRepo,
	}
}

func validateQuestion(question *models.Question) error {
	if question.Text == "" {
		return fmt.Errorf("question text cannot be empty: %w", models.ErrValidation)
	}
	if !question.Level.Valid() {
		return fmt.Errorf("unknown level %q: %w", question.Level, models.ErrValidation)
	}
	if len(question.Options) != RequiredOptionCount {
		return fmt.Errorf("question must have exactly %d options: %w", RequiredOptionCount, models.ErrValidation)
	}
	for i, opt := range question.Options {
		if opt == "" {
			return fmt.Errorf("option %d cannot be empty: %w", i, models.ErrValidation)
		}
	}
	if question.CorrectOptionIndex < 0 || question.CorrectOptionIndex >= RequiredOptionCount {
		return fmt.Errorf("correct option index must be between 0 and %d: %w", RequiredOptionCount-1, models.ErrValidation)
	}
	return nil
}

func (s *questionService) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := validateQuestion(question); err != nil {
		return err
	}
	if _, err := s.competencyRepo.GetByID(ctx, question.CompetencyID); err != nil {
		return err
	}
	return s.questionRepo.Create(ctx, question)
}

func (s *questionService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	return s.questionRepo.GetByID(ctx, id)
}

func (s *questionService) UpdateQuestion(ctx context.Context, question *models.Question) error {
	if err := validateQuestion(question); err != nil {
		return err
	}
	return s.questionRepo.Update(ctx, question)
}

func (s *questionService) DeactivateQuestion(ctx context.Context, id string) error {
	return s.questionRepo.Deactivate(ctx, id)
}

func (s *questionService) ListByCompetency(ctx context.Context, competencyID string) ([]*models.Question, error) {
	return s.questionRepo.ListByCompetency(ctx, competencyID)
}

func (s *questionService) CreateCompetency(ctx context.Context, competency *models.Competency) error {
	if competency.Name == "" {
		return fmt.Errorf("competency name cannot be empty: %w", models.ErrValidation)
	}
	return s.competencyRepo.Create(ctx, competency)
}

func (s *questionService) GetCompetency(ctx context.Context, id string) (*models.Competency, error) {
	return s.competencyRepo.GetByID(ctx, id)
}

func (s *questionService) ListCompetencies(ctx context.Context) ([]*models.Competency, error) {
	return s.competencyRepo.List(ctx)
}

func (s *questionService) UpdateCompetency(ctx context.Context, competency *models.Competency) error {
	if competency.Name == "" {
		return fmt.Errorf("competency name cannot be empty: %w", models.ErrValidation)
	}
	return s.competencyRepo.Update(ctx, competency)
}

func (s *questionService) DeleteCompetency(ctx context.Context, id string) error {
	return s.competencyRepo.Delete(ctx, id)
}
