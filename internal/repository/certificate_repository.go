package repository

import (
	"context"
	"database/sql"
	"fmt"

	"assessment-service/internal/models"
)

type CertificateRepository interface {
	GetByID(ctx context.Context, id string) (*models.Certificate, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Certificate, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error)
}

type certificateRepository struct {
	db *sql.DB
}

func NewCertificateRepository(db *sql.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

const certificateColumns = `id, user_id, session_id, level_achieved, issued_date`

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	cert := &models.Certificate{}
	err := row.Scan(
		&cert.ID,
		&cert.UserID,
		&cert.SessionID,
		&cert.LevelAchieved,
		&cert.IssuedDate,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("certificate: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan certificate: %w", err)
	}
	return cert, nil
}

func (r *certificateRepository) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	return scanCertificate(r.db.QueryRowContext(ctx, query, id))
}

func (r *certificateRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE session_id = $1`
	return scanCertificate(r.db.QueryRowContext(ctx, query, sessionID))
}

func (r *certificateRepository) ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE user_id = $1 ORDER BY issued_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certificates []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certificates = append(certificates, cert)
	}
	return certificates, rows.Err()
}
