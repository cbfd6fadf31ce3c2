package database

import (
	"context"
	"database/sql"
	"fmt"

	"assessment-service/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	createUsersTable := `
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(255) PRIMARY KEY,
			email VARCHAR(255) NOT NULL UNIQUE,
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			last_name VARCHAR(255) NOT NULL DEFAULT '',
			role VARCHAR(50) NOT NULL DEFAULT 'student',
			email_verified BOOLEAN NOT NULL DEFAULT FALSE,
			assessment_status VARCHAR(50) NOT NULL DEFAULT 'eligible',
			highest_level_achieved VARCHAR(10),
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	createCompetenciesTable := `
		CREATE TABLE IF NOT EXISTS competencies (
			id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	createQuestionsTable := `
		CREATE TABLE IF NOT EXISTS questions (
			id VARCHAR(255) PRIMARY KEY,
			competency_id VARCHAR(255) NOT NULL,
			level VARCHAR(10) NOT NULL,
			text TEXT NOT NULL,
			options JSONB NOT NULL DEFAULT '[]',
			correct_option_index INTEGER NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (competency_id) REFERENCES competencies(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_questions_competency_id ON questions(competency_id);
		CREATE INDEX IF NOT EXISTS idx_questions_level ON questions(level);
	`

	createTestSessionsTable := `
		CREATE TABLE IF NOT EXISTS test_sessions (
			id VARCHAR(255) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			step INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			current_question_index INTEGER NOT NULL DEFAULT 0,
			questions_answered INTEGER NOT NULL DEFAULT 0,
			status VARCHAR(50) NOT NULL,
			score INTEGER,
			level_achieved VARCHAR(10),
			can_proceed_to_next_step BOOLEAN NOT NULL DEFAULT FALSE,
			blocks_retake BOOLEAN NOT NULL DEFAULT FALSE,
			time_limit_seconds INTEGER NOT NULL,
			total_time_seconds INTEGER,
			started_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			completed_at TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_test_sessions_user_id ON test_sessions(user_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_test_sessions_active
			ON test_sessions(user_id, step) WHERE status = 'in_progress';
	`

	createQuestionResponsesTable := `
		CREATE TABLE IF NOT EXISTS question_responses (
			session_id VARCHAR(255) NOT NULL,
			question_id VARCHAR(255) NOT NULL,
			position INTEGER NOT NULL,
			selected_option_index INTEGER,
			is_correct BOOLEAN,
			is_skipped BOOLEAN NOT NULL DEFAULT FALSE,
			question_start_time TIMESTAMP,
			answered_at TIMESTAMP,
			time_spent_seconds INTEGER,
			PRIMARY KEY (session_id, question_id),
			UNIQUE (session_id, position),
			FOREIGN KEY (session_id) REFERENCES test_sessions(id) ON DELETE CASCADE,
			FOREIGN KEY (question_id) REFERENCES questions(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_question_responses_session_id ON question_responses(session_id);
	`

	createCertificatesTable := `
		CREATE TABLE IF NOT EXISTS certificates (
			id VARCHAR(255) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			session_id VARCHAR(255) NOT NULL UNIQUE,
			level_achieved VARCHAR(10) NOT NULL,
			issued_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (session_id) REFERENCES test_sessions(id) ON DELETE CASCADE
		);
		CREATE INDEX IF NOT EXISTS idx_certificates_user_id ON certificates(user_id);
	`

	if _, err := c.db.ExecContext(ctx, createUsersTable); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, createCompetenciesTable); err != nil {
		return fmt.Errorf("failed to create competencies table: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, createQuestionsTable); err != nil {
		return fmt.Errorf("failed to create questions table: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, createTestSessionsTable); err != nil {
		return fmt.Errorf("failed to create test_sessions table: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, createQuestionResponsesTable); err != nil {
		return fmt.Errorf("failed to create question_responses table: %w", err)
	}

	if _, err := c.db.ExecContext(ctx, createCertificatesTable); err != nil {
		return fmt.Errorf("failed to create certificates table: %w", err)
	}

	return nil
}
