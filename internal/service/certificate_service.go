package service

import (
	"context"
	"fmt"
	"log"

	"assessment-service/internal/models"
	"assessment-service/internal/repository"
	"assessment-service/pkg/certificate"
)

type ObjectStorage interface {
	UploadFile(ctx context.Context, bucketName, objectName string, data []byte, contentType string) error
	DownloadFile(ctx context.Context, bucketName, objectName string) ([]byte, error)
	FileExists(ctx context.Context, bucketName, objectName string) (bool, error)
}

type CertificateService interface {
	ListMine(ctx context.Context, userID string) ([]*models.Certificate, error)
	Download(ctx context.Context, userID, certificateID string) ([]byte, error)
}

type certificateService struct {
	certRepo    repository.CertificateRepository
	sessionRepo repository.SessionRepository
	userRepo    repository.UserRepository
	storage     ObjectStorage
	bucket      string
}

func NewCertificateService(
	certRepo repository.CertificateRepository,
	sessionRepo repository.SessionRepository,
	userRepo repository.UserRepository,
	storage ObjectStorage,
	bucket string,
) CertificateService {
	return &certificateService{
		certRepo:    certRepo,
		sessionRepo: sessionRepo,
		userRepo:    userRepo,
		storage:     storage,
		bucket:      bucket,
	}
}

func (s *certificateService) ListMine(ctx context.Context, userID string) ([]*models.Certificate, error) {
	return s.certRepo.ListByUser(ctx, userID)
}

// Download returns the certificate PDF, rendering it on first request
// and caching the result in object storage.
func (s *certificateService) Download(ctx context.Context, userID, certificateID string) ([]byte, error) {
	cert, err := s.certRepo.GetByID(ctx, certificateID)
	if err != nil {
		return nil, err
	}
	if cert.UserID != userID {
		return nil, fmt.Errorf("certificate belongs to another user: %w", models.ErrForbidden)
	}

	objectName := cert.ID + ".pdf"

	if s.storage != nil {
		exists, err := s.storage.FileExists(ctx, s.bucket, objectName)
		if err != nil {
			log.Printf("Failed to check cached certificate %s: %v", cert.ID, err)
		} else if exists {
			return s.storage.DownloadFile(ctx, s.bucket, objectName)
		}
	}

	user, err := s.userRepo.GetByID(ctx, cert.UserID)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionRepo.GetSessionByID(ctx, cert.SessionID)
	if err != nil {
		return nil, err
	}

	score := 0
	if session.Score.Valid {
		score = int(session.Score.Int32)
	}

	holderName := user.FirstName
	if user.LastName != "" {
		if holderName != "" {
			holderName += " "
		}
		holderName += user.LastName
	}

	pdf, err := certificate.Render(certificate.Data{
		CertificateID: cert.ID,
		HolderName:    holderName,
		HolderEmail:   user.Email,
		Level:         string(cert.LevelAchieved),
		Score:         score,
		IssuedDate:    cert.IssuedDate,
	})
	if err != nil {
		return nil, err
	}

	if s.storage != nil {
		if err := s.storage.UploadFile(ctx, s.bucket, objectName, pdf, "application/pdf"); err != nil {
			log.Printf("Failed to cache certificate %s: %v", cert.ID, err)
		}
	}

	return pdf, nil
}
