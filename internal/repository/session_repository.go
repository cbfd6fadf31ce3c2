package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"assessment-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Resolution records the terminal outcome of one question response.
type Resolution struct {
	SelectedOptionIndex int
	IsCorrect           bool
	IsSkipped           bool
	TimeSpentSeconds    int
}

// CompletionDecision is the progression outcome applied when a session
// is completed.
type CompletionDecision struct {
	Score                int
	LevelAchieved        *models.Level
	CanProceedToNextStep bool
	BlocksRetake         bool
}

// DecideFunc maps the in-transaction answer tally to a completion
// decision. It must be pure: it can be re-invoked if the transaction
// retries.
type DecideFunc func(correctAnswers, totalQuestions int) CompletionDecision

// CompletionRecord is everything written by a successful completion.
type CompletionRecord struct {
	Session     *models.TestSession
	Certificate *models.Certificate
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.TestSession, questionIDs []string) error
	GetSessionByID(ctx context.Context, id string) (*models.TestSession, error)
	GetActiveSession(ctx context.Context, userID string, step int) (*models.TestSession, error)
	GetPassedSession(ctx context.Context, userID string, step int) (*models.TestSession, error)
	GetResponses(ctx context.Context, sessionID string) ([]*models.QuestionResponse, error)
	GetResponse(ctx context.Context, sessionID, questionID string) (*models.QuestionResponse, error)
	GetResponseAt(ctx context.Context, sessionID string, position int) (*models.QuestionResponse, error)
	ResolveAndAdvance(ctx context.Context, sessionID, questionID string, res Resolution) (*models.TestSession, error)
	Navigate(ctx context.Context, sessionID string, forward bool) (*models.TestSession, error)
	Complete(ctx context.Context, sessionID string, totalTimeSeconds int, decide DecideFunc) (*CompletionRecord, error)
}

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, user_id, step, total_questions, current_question_index, questions_answered, status, score, level_achieved, can_proceed_to_next_step, blocks_retake, time_limit_seconds, total_time_seconds, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.TestSession, error) {
	session := &models.TestSession{}
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Step,
		&session.TotalQuestions,
		&session.CurrentQuestionIndex,
		&session.QuestionsAnswered,
		&session.Status,
		&session.Score,
		&session.LevelAchieved,
		&session.CanProceedToNextStep,
		&session.BlocksRetake,
		&session.TimeLimitSeconds,
		&session.TotalTimeSeconds,
		&session.StartedAt,
		&session.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return session, nil
}

const responseColumns = `session_id, question_id, position, selected_option_index, is_correct, is_skipped, question_start_time, answered_at, time_spent_seconds`

func scanResponse(row rowScanner) (*models.QuestionResponse, error) {
	response := &models.QuestionResponse{}
	err := row.Scan(
		&response.SessionID,
		&response.QuestionID,
		&response.Position,
		&response.SelectedOptionIndex,
		&response.IsCorrect,
		&response.IsSkipped,
		&response.QuestionStartTime,
		&response.AnsweredAt,
		&response.TimeSpentSeconds,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("response: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan response: %w", err)
	}
	return response, nil
}

// CreateSession inserts the session and one response row per question
// in the given order, all in one transaction. A second in_progress
// session for the same (user, step) violates the partial unique index
// and surfaces as ErrConflict.
func (r *sessionRepository) CreateSession(ctx context.Context, session *models.TestSession, questionIDs []string) error {
	session.ID = uuid.New().String()
	session.Status = models.SessionInProgress
	session.TotalQuestions = len(questionIDs)
	session.CurrentQuestionIndex = 0
	session.QuestionsAnswered = 0
	session.TimeLimitSeconds = len(questionIDs) * models.SecondsPerQuestion
	session.StartedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insertSession := `
		INSERT INTO test_sessions (id, user_id, step, total_questions, current_question_index, questions_answered, status, time_limit_seconds, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, insertSession,
		session.ID,
		session.UserID,
		session.Step,
		session.TotalQuestions,
		session.CurrentQuestionIndex,
		session.QuestionsAnswered,
		session.Status,
		session.TimeLimitSeconds,
		session.StartedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("active session for user %s step %d: %w", session.UserID, session.Step, models.ErrConflict)
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	insertResponse := `
		INSERT INTO question_responses (session_id, question_id, position, question_start_time)
		VALUES ($1, $2, $3, $4)
	`
	for i, questionID := range questionIDs {
		// The per-question clock starts immediately for question 0 and
		// is stamped later for the rest as the cursor reaches them.
		var startTime sql.NullTime
		if i == 0 {
			startTime = sql.NullTime{Time: session.StartedAt, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, insertResponse, session.ID, questionID, i, startTime); err != nil {
			return fmt.Errorf("failed to create response %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (r *sessionRepository) GetSessionByID(ctx context.Context, id string) (*models.TestSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM test_sessions WHERE id = $1`
	return scanSession(r.db.QueryRowContext(ctx, query, id))
}

func (r *sessionRepository) GetActiveSession(ctx context.Context, userID string, step int) (*models.TestSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM test_sessions WHERE user_id = $1 AND step = $2 AND status = $3`
	return scanSession(r.db.QueryRowContext(ctx, query, userID, step, models.SessionInProgress))
}

// GetPassedSession returns the most recent completed session for the
// step that allows proceeding to the next one.
func (r *sessionRepository) GetPassedSession(ctx context.Context, userID string, step int) (*models.TestSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM test_sessions
		WHERE user_id = $1 AND step = $2 AND status = $3 AND can_proceed_to_next_step = TRUE
		ORDER BY completed_at DESC
		LIMIT 1
	`
	return scanSession(r.db.QueryRowContext(ctx, query, userID, step, models.SessionCompleted))
}

func (r *sessionRepository) GetResponses(ctx context.Context, sessionID string) ([]*models.QuestionResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM question_responses WHERE session_id = $1 ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []*models.QuestionResponse
	for rows.Next() {
		response, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}

func (r *sessionRepository) GetResponse(ctx context.Context, sessionID, questionID string) (*models.QuestionResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM question_responses WHERE session_id = $1 AND question_id = $2`
	return scanResponse(r.db.QueryRowContext(ctx, query, sessionID, questionID))
}

func (r *sessionRepository) GetResponseAt(ctx context.Context, sessionID string, position int) (*models.QuestionResponse, error) {
	query := `SELECT ` + responseColumns + ` FROM question_responses WHERE session_id = $1 AND position = $2`
	return scanResponse(r.db.QueryRowContext(ctx, query, sessionID, position))
}

// ResolveAndAdvance marks one response answered or skipped and advances
// the session cursor, as a single atomic unit. The session row is
// locked for the duration so racing resolutions serialize; the second
// one finds the response already resolved and fails with
// ErrInvalidState.
func (r *sessionRepository) ResolveAndAdvance(ctx context.Context, sessionID, questionID string, res Resolution) (*models.TestSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lockSession := `SELECT ` + sessionColumns + ` FROM test_sessions WHERE id = $1 FOR UPDATE`
	session, err := scanSession(tx.QueryRowContext(ctx, lockSession, sessionID))
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}

	now := time.Now()

	var updateResponse string
	var args []any
	if res.IsSkipped {
		updateResponse = `
			UPDATE question_responses
			SET is_skipped = TRUE, answered_at = $1, time_spent_seconds = $2
			WHERE session_id = $3 AND question_id = $4 AND selected_option_index IS NULL AND is_skipped = FALSE
		`
		args = []any{now, res.TimeSpentSeconds, sessionID, questionID}
	} else {
		updateResponse = `
			UPDATE question_responses
			SET selected_option_index = $1, is_correct = $2, answered_at = $3, time_spent_seconds = $4
			WHERE session_id = $5 AND question_id = $6 AND selected_option_index IS NULL AND is_skipped = FALSE
		`
		args = []any{res.SelectedOptionIndex, res.IsCorrect, now, res.TimeSpentSeconds, sessionID, questionID}
	}

	result, err := tx.ExecContext(ctx, updateResponse, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update response: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Either the response does not belong to this session or it is
		// already resolved.
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM question_responses WHERE session_id = $1 AND question_id = $2)`
		if err := tx.QueryRowContext(ctx, checkQuery, sessionID, questionID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("response: %w", models.ErrNotFound)
		}
		return nil, fmt.Errorf("question already resolved: %w", models.ErrInvalidState)
	}

	session.QuestionsAnswered++
	if session.CurrentQuestionIndex < session.TotalQuestions-1 {
		session.CurrentQuestionIndex++

		stampNext := `
			UPDATE question_responses
			SET question_start_time = $1
			WHERE session_id = $2 AND position = $3 AND question_start_time IS NULL
		`
		if _, err := tx.ExecContext(ctx, stampNext, now, sessionID, session.CurrentQuestionIndex); err != nil {
			return nil, fmt.Errorf("failed to stamp next question start: %w", err)
		}
	}

	updateSession := `UPDATE test_sessions SET current_question_index = $1, questions_answered = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, updateSession, session.CurrentQuestionIndex, session.QuestionsAnswered, sessionID); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return session, nil
}

// Navigate moves the cursor one position. Forward requires the current
// response to be resolved; backward only requires room to move.
func (r *sessionRepository) Navigate(ctx context.Context, sessionID string, forward bool) (*models.TestSession, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lockSession := `SELECT ` + sessionColumns + ` FROM test_sessions WHERE id = $1 FOR UPDATE`
	session, err := scanSession(tx.QueryRowContext(ctx, lockSession, sessionID))
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}

	if forward {
		if session.CurrentQuestionIndex >= session.TotalQuestions-1 {
			return nil, fmt.Errorf("already at last question: %w", models.ErrInvalidState)
		}

		current := `SELECT ` + responseColumns + ` FROM question_responses WHERE session_id = $1 AND position = $2`
		response, err := scanResponse(tx.QueryRowContext(ctx, current, sessionID, session.CurrentQuestionIndex))
		if err != nil {
			return nil, err
		}
		if !response.Resolved() {
			return nil, fmt.Errorf("current question not resolved: %w", models.ErrInvalidState)
		}

		session.CurrentQuestionIndex++

		stampNext := `
			UPDATE question_responses
			SET question_start_time = $1
			WHERE session_id = $2 AND position = $3 AND question_start_time IS NULL
		`
		if _, err := tx.ExecContext(ctx, stampNext, time.Now(), sessionID, session.CurrentQuestionIndex); err != nil {
			return nil, fmt.Errorf("failed to stamp next question start: %w", err)
		}
	} else {
		if session.CurrentQuestionIndex <= 0 {
			return nil, fmt.Errorf("already at first question: %w", models.ErrInvalidState)
		}
		session.CurrentQuestionIndex--
	}

	updateSession := `UPDATE test_sessions SET current_question_index = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, updateSession, session.CurrentQuestionIndex, sessionID); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return session, nil
}

// Complete finalizes a session: it tallies correct answers, applies the
// caller's decision, updates the session, applies the user-level
// consequences (permanent block, highest-level ratchet) and issues a
// certificate when a level was achieved, all in one transaction so a
// partially applied completion is never observable.
func (r *sessionRepository) Complete(ctx context.Context, sessionID string, totalTimeSeconds int, decide DecideFunc) (*CompletionRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	lockSession := `SELECT ` + sessionColumns + ` FROM test_sessions WHERE id = $1 FOR UPDATE`
	session, err := scanSession(tx.QueryRowContext(ctx, lockSession, sessionID))
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionInProgress {
		return nil, fmt.Errorf("session is %s: %w", session.Status, models.ErrInvalidState)
	}

	// Unresolved responses simply contribute no correct answer; the
	// denominator is always the full question count.
	countCorrect := `SELECT COUNT(*) FROM question_responses WHERE session_id = $1 AND is_correct = TRUE`
	var correctAnswers int
	if err := tx.QueryRowContext(ctx, countCorrect, sessionID).Scan(&correctAnswers); err != nil {
		return nil, fmt.Errorf("failed to count correct answers: %w", err)
	}

	decision := decide(correctAnswers, session.TotalQuestions)

	now := time.Now()
	session.Status = models.SessionCompleted
	if decision.BlocksRetake {
		session.Status = models.SessionFailedNoRetake
	}
	session.Score = sql.NullInt32{Int32: int32(decision.Score), Valid: true}
	session.CanProceedToNextStep = decision.CanProceedToNextStep
	session.BlocksRetake = decision.BlocksRetake
	session.TotalTimeSeconds = sql.NullInt32{Int32: int32(totalTimeSeconds), Valid: true}
	session.CompletedAt = sql.NullTime{Time: now, Valid: true}
	if decision.LevelAchieved != nil {
		session.LevelAchieved = sql.NullString{String: string(*decision.LevelAchieved), Valid: true}
	}

	updateSession := `
		UPDATE test_sessions
		SET status = $1, score = $2, level_achieved = $3, can_proceed_to_next_step = $4, blocks_retake = $5, total_time_seconds = $6, completed_at = $7
		WHERE id = $8
	`
	_, err = tx.ExecContext(ctx, updateSession,
		session.Status,
		session.Score,
		session.LevelAchieved,
		session.CanProceedToNextStep,
		session.BlocksRetake,
		session.TotalTimeSeconds,
		session.CompletedAt,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}

	if decision.BlocksRetake {
		blockUser := `UPDATE users SET assessment_status = $1 WHERE id = $2`
		if _, err := tx.ExecContext(ctx, blockUser, models.AssessmentBlocked, session.UserID); err != nil {
			return nil, fmt.Errorf("failed to block user: %w", err)
		}
	}

	record := &CompletionRecord{Session: session}

	if decision.LevelAchieved != nil {
		// Ratchet: the stored highest level only ever moves up.
		var current sql.NullString
		lockUser := `SELECT highest_level_achieved FROM users WHERE id = $1 FOR UPDATE`
		if err := tx.QueryRowContext(ctx, lockUser, session.UserID).Scan(&current); err != nil {
			return nil, fmt.Errorf("failed to read user level: %w", err)
		}

		if !current.Valid || decision.LevelAchieved.Higher(models.Level(current.String)) {
			updateUser := `UPDATE users SET highest_level_achieved = $1 WHERE id = $2`
			if _, err := tx.ExecContext(ctx, updateUser, string(*decision.LevelAchieved), session.UserID); err != nil {
				return nil, fmt.Errorf("failed to update user level: %w", err)
			}
		}

		cert := &models.Certificate{
			ID:            uuid.New().String(),
			UserID:        session.UserID,
			SessionID:     sessionID,
			LevelAchieved: *decision.LevelAchieved,
			IssuedDate:    now,
		}
		insertCert := `
			INSERT INTO certificates (id, user_id, session_id, level_achieved, issued_date)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, insertCert, cert.ID, cert.UserID, cert.SessionID, cert.LevelAchieved, cert.IssuedDate); err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				return nil, fmt.Errorf("certificate for session %s: %w", sessionID, models.ErrConflict)
			}
			return nil, fmt.Errorf("failed to create certificate: %w", err)
		}
		record.Certificate = cert
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return record, nil
}
