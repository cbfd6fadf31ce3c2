package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"assessment-service/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var certificateCols = []string{"id", "user_id", "session_id", "level_achieved", "issued_date"}

func TestCertificateRepository_GetBySessionID(t *testing.T) {
	ctx := context.Background()

	t.Run("finds the certificate issued for a session", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		rows := sqlmock.NewRows(certificateCols).
			AddRow("cert1", "u1", "s1", "A2", time.Now())
		mock.ExpectQuery(regexp.QuoteMeta("FROM certificates WHERE session_id = $1")).
			WithArgs("s1").
			WillReturnRows(rows)

		repo := NewCertificateRepository(db)
		cert, err := repo.GetBySessionID(ctx, "s1")

		require.NoError(t, err)
		assert.Equal(t, "cert1", cert.ID)
		assert.Equal(t, models.LevelA2, cert.LevelAchieved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("session without a certificate is not found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(regexp.QuoteMeta("FROM certificates WHERE session_id = $1")).
			WithArgs("failed-session").
			WillReturnRows(sqlmock.NewRows(certificateCols))

		repo := NewCertificateRepository(db)
		_, err = repo.GetBySessionID(ctx, "failed-session")

		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
