package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"assessment-service/internal/models"
	"assessment-service/internal/progression"
	"assessment-service/internal/repository"
)

type RabbitMQPublisher interface {
	Publish(ctx context.Context, queueName string, body []byte) error
}

const (
	DirectionNext     = "next"
	DirectionPrevious = "previous"
)

const CertificateIssuedQueue = "assessment.certificate_issued"

type EligibilityResult struct {
	Eligible     bool
	Step         int
	CurrentLevel *models.Level
	Reason       string
}

type StartResult struct {
	SessionID            string
	Step                 int
	CurrentQuestionIndex int
	TotalQuestions       int
	TimeLimitSeconds     int
	Resumed              bool
}

// QuestionView is the question as shown to the candidate: the correct
// option index never leaves the server.
type QuestionView struct {
	ID           string
	CompetencyID string
	Level        models.Level
	Text         string
	Options      []string
}

type CurrentQuestionResult struct {
	Question             QuestionView
	CurrentQuestionIndex int
	TotalQuestions       int
	QuestionsAnswered    int
	TimeRemainingSeconds int
	CanSkip              bool
	CanGoNext            bool
	CanGoPrevious        bool
	CanSubmitTest        bool
}

type AnswerResult struct {
	IsCorrect            bool
	CurrentQuestionIndex int
	IsLastQuestion       bool
}

type SkipResult struct {
	CurrentQuestionIndex int
	IsLastQuestion       bool
}

type NavigateResult struct {
	CurrentQuestionIndex int
	Direction            string
}

type CompletionResult struct {
	SessionID            string
	Score                int
	LevelAchieved        *models.Level
	CanProceedToNextStep bool
	BlocksRetake         bool
	Certificate          *models.Certificate
}

// ResponseView is one row of the post-completion breakdown.
type ResponseView struct {
	QuestionID          string
	Position            int
	SelectedOptionIndex *int
	IsCorrect           bool
	IsSkipped           bool
	TimeSpentSeconds    int
}

type ResultsResult struct {
	SessionID            string
	Step                 int
	Score                int
	LevelAchieved        *models.Level
	CanProceedToNextStep bool
	BlocksRetake         bool
	TotalTimeSeconds     int
	Responses            []ResponseView
	Certificate          *models.Certificate
}

type AssessmentService interface {
	Eligibility(ctx context.Context, userID string, step int) (*EligibilityResult, error)
	Start(ctx context.Context, userID string, step int) (*StartResult, error)
	GetCurrentQuestion(ctx context.Context, userID, sessionID string) (*CurrentQuestionResult, error)
	SubmitAnswer(ctx context.Context, userID, sessionID, questionID string, selectedOptionIndex, timeSpentSeconds int) (*AnswerResult, error)
	SkipQuestion(ctx context.Context, userID, sessionID string) (*SkipResult, error)
	Navigate(ctx context.Context, userID, sessionID, direction string) (*NavigateResult, error)
	Complete(ctx context.Context, userID, sessionID string, totalTimeSeconds int) (*CompletionResult, error)
	Results(ctx context.Context, userID, sessionID string) (*ResultsResult, error)
}

type assessmentService struct {
	sessionRepo  repository.SessionRepository
	questionRepo repository.QuestionRepository
	userRepo     repository.UserRepository
	certRepo     repository.CertificateRepository
	mqPublisher  RabbitMQPublisher
}

func NewAssessmentService(
	sessionRepo repository.SessionRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	certRepo repository.CertificateRepository,
	mqPublisher RabbitMQPublisher,
) AssessmentService {
	return &assessmentService{
		sessionRepo:  sessionRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
		certRepo:     certRepo,
		mqPublisher:  mqPublisher,
	}
}

// checkEligibility enforces the entry rules for a step: the user must
// not be blocked, and every step beyond the first requires a passed
// session on the previous step.
func (s *assessmentService) checkEligibility(ctx context.Context, user *models.User, step int) error {
	if user.AssessmentStatus == models.AssessmentBlocked {
		return fmt.Errorf("user is blocked from assessments: %w", models.ErrForbidden)
	}

	if step > models.MinStep {
		_, err := s.sessionRepo.GetPassedSession(ctx, user.ID, step-1)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("step %d not passed: %w", step-1, models.ErrForbidden)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *assessmentService) Eligibility(ctx context.Context, userID string, step int) (*EligibilityResult, error) {
	if step < models.MinStep || step > models.MaxStep {
		return nil, fmt.Errorf("step must be between %d and %d: %w", models.MinStep, models.MaxStep, models.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &EligibilityResult{
		Eligible: true,
		Step:     step,
	}
	if user.HighestLevelAchieved.Valid {
		level := models.Level(user.HighestLevelAchieved.String)
		result.CurrentLevel = &level
	}

	if err := s.checkEligibility(ctx, user, step); err != nil {
		if errors.Is(err, models.ErrForbidden) {
			result.Eligible = false
			result.Reason = err.Error()
			return result, nil
		}
		return nil, err
	}

	return result, nil
}

func (s *assessmentService) Start(ctx context.Context, userID string, step int) (*StartResult, error) {
	if step < models.MinStep || step > models.MaxStep {
		return nil, fmt.Errorf("step must be between %d and %d: %w", models.MinStep, models.MaxStep, models.ErrValidation)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.checkEligibility(ctx, user, step); err != nil {
		return nil, err
	}

	// Duplicate start requests resume the open session instead of
	// creating a second one.
	existing, err := s.sessionRepo.GetActiveSession(ctx, userID, step)
	if err == nil {
		return startResultFrom(existing, true), nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	levels, _ := models.LevelsForStep(step)
	questions, err := s.questionRepo.GetActiveByLevels(ctx, levels)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("no active questions for step %d: %w", step, models.ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load question pool: %w", err)
	}

	questionIDs := make([]string, len(questions))
	for i, q := range questions {
		questionIDs[i] = q.ID
	}

	session := &models.TestSession{
		UserID: userID,
		Step:   step,
	}
	if err := s.sessionRepo.CreateSession(ctx, session, questionIDs); err != nil {
		// A racing start won the unique-index guard; hand back its
		// session for the same idempotent outcome.
		if errors.Is(err, models.ErrConflict) {
			if winner, lookupErr := s.sessionRepo.GetActiveSession(ctx, userID, step); lookupErr == nil {
				return startResultFrom(winner, true), nil
			}
		}
		return nil, err
	}

	return startResultFrom(session, false), nil
}

func startResultFrom(session *models.TestSession, resumed bool) *StartResult {
	return &StartResult{
		SessionID:            session.ID,
		Step:                 session.Step,
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		TotalQuestions:       session.TotalQuestions,
		TimeLimitSeconds:     session.TimeLimitSeconds,
		Resumed:              resumed,
	}
}

// getOwnedSession loads a session and verifies the caller owns it.
func (s *assessmentService) getOwnedSession(ctx context.Context, userID, sessionID string) (*models.TestSession, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("session belongs to another user: %w", models.ErrForbidden)
	}
	return session, nil
}

func (s *assessmentService) GetCurrentQuestion(ctx context.Context, userID, sessionID string) (*CurrentQuestionResult, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}

	response, err := s.sessionRepo.GetResponseAt(ctx, sessionID, session.CurrentQuestionIndex)
	if err != nil {
		return nil, err
	}

	question, err := s.questionRepo.GetByID(ctx, response.QuestionID)
	if err != nil {
		return nil, err
	}

	elapsed := int(time.Since(session.StartedAt).Seconds())
	timeRemaining := session.TimeLimitSeconds - elapsed
	if timeRemaining < 0 {
		timeRemaining = 0
	}

	resolved := response.Resolved()

	return &CurrentQuestionResult{
		Question: QuestionView{
			ID:           question.ID,
			CompetencyID: question.CompetencyID,
			Level:        question.Level,
			Text:         question.Text,
			Options:      question.Options,
		},
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		TotalQuestions:       session.TotalQuestions,
		QuestionsAnswered:    session.QuestionsAnswered,
		TimeRemainingSeconds: timeRemaining,
		CanSkip:              !resolved,
		CanGoNext:            resolved && session.CurrentQuestionIndex < session.TotalQuestions-1,
		CanGoPrevious:        session.CurrentQuestionIndex > 0,
		CanSubmitTest:        session.QuestionsAnswered > 0,
	}, nil
}

func (s *assessmentService) SubmitAnswer(ctx context.Context, userID, sessionID, questionID string, selectedOptionIndex, timeSpentSeconds int) (*AnswerResult, error) {
	if selectedOptionIndex < 0 || selectedOptionIndex > 3 {
		return nil, fmt.Errorf("selected option index must be between 0 and 3: %w", models.ErrValidation)
	}
	if timeSpentSeconds < 0 {
		return nil, fmt.Errorf("time spent cannot be negative: %w", models.ErrValidation)
	}

	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}

	response, err := s.sessionRepo.GetResponse(ctx, sessionID, questionID)
	if err != nil {
		return nil, err
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	isCorrect := selectedOptionIndex == question.CorrectOptionIndex

	updated, err := s.sessionRepo.ResolveAndAdvance(ctx, sessionID, questionID, repository.Resolution{
		SelectedOptionIndex: selectedOptionIndex,
		IsCorrect:           isCorrect,
		TimeSpentSeconds:    timeSpentSeconds,
	})
	if err != nil {
		return nil, err
	}

	return &AnswerResult{
		IsCorrect:            isCorrect,
		CurrentQuestionIndex: updated.CurrentQuestionIndex,
		IsLastQuestion:       response.Position == updated.TotalQuestions-1,
	}, nil
}

func (s *assessmentService) SkipQuestion(ctx context.Context, userID, sessionID string) (*SkipResult, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}

	response, err := s.sessionRepo.GetResponseAt(ctx, sessionID, session.CurrentQuestionIndex)
	if err != nil {
		return nil, err
	}

	timeSpent := 0
	if response.QuestionStartTime.Valid {
		timeSpent = int(time.Since(response.QuestionStartTime.Time).Seconds())
	}

	updated, err := s.sessionRepo.ResolveAndAdvance(ctx, sessionID, response.QuestionID, repository.Resolution{
		IsSkipped:        true,
		TimeSpentSeconds: timeSpent,
	})
	if err != nil {
		return nil, err
	}

	return &SkipResult{
		CurrentQuestionIndex: updated.CurrentQuestionIndex,
		IsLastQuestion:       response.Position == updated.TotalQuestions-1,
	}, nil
}

func (s *assessmentService) Navigate(ctx context.Context, userID, sessionID, direction string) (*NavigateResult, error) {
	if direction != DirectionNext && direction != DirectionPrevious {
		return nil, fmt.Errorf("direction must be %q or %q: %w", DirectionNext, DirectionPrevious, models.ErrValidation)
	}

	if _, err := s.getOwnedSession(ctx, userID, sessionID); err != nil {
		return nil, err
	}

	updated, err := s.sessionRepo.Navigate(ctx, sessionID, direction == DirectionNext)
	if err != nil {
		return nil, err
	}

	return &NavigateResult{
		CurrentQuestionIndex: updated.CurrentQuestionIndex,
		Direction:            direction,
	}, nil
}

func (s *assessmentService) Complete(ctx context.Context, userID, sessionID string, totalTimeSeconds int) (*CompletionResult, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}

	record, err := s.sessionRepo.Complete(ctx, sessionID, totalTimeSeconds, func(correctAnswers, totalQuestions int) repository.CompletionDecision {
		score := progression.Score(correctAnswers, totalQuestions)
		outcome := progression.Evaluate(session.Step, score)
		return repository.CompletionDecision{
			Score:                score,
			LevelAchieved:        outcome.LevelAchieved,
			CanProceedToNextStep: outcome.CanProceedToNextStep,
			BlocksRetake:         outcome.BlocksRetake,
		}
	})
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{
		SessionID:            sessionID,
		CanProceedToNextStep: record.Session.CanProceedToNextStep,
		BlocksRetake:         record.Session.BlocksRetake,
		Certificate:          record.Certificate,
	}
	if record.Session.Score.Valid {
		result.Score = int(record.Session.Score.Int32)
	}
	if record.Session.LevelAchieved.Valid {
		level := models.Level(record.Session.LevelAchieved.String)
		result.LevelAchieved = &level
	}

	if record.Certificate != nil {
		s.publishCertificateIssued(ctx, userID, record.Certificate, result.Score)
	}

	return result, nil
}

// Results returns the per-question breakdown of a finished session,
// including the certificate when one was issued.
func (s *assessmentService) Results(ctx context.Context, userID, sessionID string) (*ResultsResult, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionInProgress {
		return nil, fmt.Errorf("session is still in progress: %w", models.ErrInvalidState)
	}

	responses, err := s.sessionRepo.GetResponses(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	result := &ResultsResult{
		SessionID:            sessionID,
		Step:                 session.Step,
		CanProceedToNextStep: session.CanProceedToNextStep,
		BlocksRetake:         session.BlocksRetake,
		Responses:            make([]ResponseView, len(responses)),
	}
	if session.Score.Valid {
		result.Score = int(session.Score.Int32)
	}
	if session.LevelAchieved.Valid {
		level := models.Level(session.LevelAchieved.String)
		result.LevelAchieved = &level
	}
	if session.TotalTimeSeconds.Valid {
		result.TotalTimeSeconds = int(session.TotalTimeSeconds.Int32)
	}

	for i, r := range responses {
		view := ResponseView{
			QuestionID: r.QuestionID,
			Position:   r.Position,
			IsCorrect:  r.IsCorrect.Valid && r.IsCorrect.Bool,
			IsSkipped:  r.IsSkipped,
		}
		if r.SelectedOptionIndex.Valid {
			idx := int(r.SelectedOptionIndex.Int32)
			view.SelectedOptionIndex = &idx
		}
		if r.TimeSpentSeconds.Valid {
			view.TimeSpentSeconds = int(r.TimeSpentSeconds.Int32)
		}
		result.Responses[i] = view
	}

	cert, err := s.certRepo.GetBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}
	result.Certificate = cert

	return result, nil
}

// publishCertificateIssued is fire-and-forget: the completion is already
// committed, so a failed publish is logged and otherwise ignored.
func (s *assessmentService) publishCertificateIssued(ctx context.Context, userID string, cert *models.Certificate, score int) {
	if s.mqPublisher == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("Failed to load user %s for certificate notification: %v", userID, err)
		return
	}

	type CertificateIssuedEvent struct {
		CertificateID string `json:"certificate_id"`
		UserID        string `json:"user_id"`
		Email         string `json:"email"`
		SessionID     string `json:"session_id"`
		Level         string `json:"level"`
		Score         int    `json:"score"`
		IssuedDate    string `json:"issued_date"`
	}

	event := CertificateIssuedEvent{
		CertificateID: cert.ID,
		UserID:        cert.UserID,
		Email:         user.Email,
		SessionID:     cert.SessionID,
		Level:         string(cert.LevelAchieved),
		Score:         score,
		IssuedDate:    cert.IssuedDate.Format(time.RFC3339),
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal certificate_issued event: %v", err)
		return
	}

	if err := s.mqPublisher.Publish(ctx, CertificateIssuedQueue, eventJSON); err != nil {
		log.Printf("Failed to publish certificate_issued event: %v", err)
	}
}
