package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"time"

	"assessment-service/internal/models"
	"assessment-service/internal/repository"
	"assessment-service/pkg/jwt"
	"assessment-service/pkg/validator"
)

const SendCodeQueue = "auth.send_code"

type TokenResult struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

type AuthService interface {
	Login(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*TokenResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error)
}

type authService struct {
	authRepo    repository.AuthRepository
	userRepo    repository.UserRepository
	mqPublisher RabbitMQPublisher
	jwtSecret   string
}

func NewAuthService(
	authRepo repository.AuthRepository,
	userRepo repository.UserRepository,
	mqPublisher RabbitMQPublisher,
	jwtSecret string,
) AuthService {
	return &authService{
		authRepo:    authRepo,
		userRepo:    userRepo,
		mqPublisher: mqPublisher,
		jwtSecret:   jwtSecret,
	}
}

// Login generates a short-lived verification code and schedules its
// delivery by email. Delivery is fire-and-forget: a failed publish is
// logged, not returned.
func (s *authService) Login(ctx context.Context, email string) error {
	email = validator.NormalizeEmail(email)
	if err := validator.ValidateEmail(email); err != nil {
		return fmt.Errorf("invalid email address: %w", models.ErrValidation)
	}

	code, err := generateCode(6)
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.authRepo.SaveAuthCode(ctx, email, code); err != nil {
		return fmt.Errorf("failed to save verification code: %w", err)
	}

	event := map[string]string{
		"email": email,
		"code":  code,
	}
	eventData, _ := json.Marshal(event)

	if err := s.mqPublisher.Publish(ctx, SendCodeQueue, eventData); err != nil {
		log.Printf("Failed to publish send_code event: %v", err)
	}

	return nil
}

// VerifyCode exchanges a valid code for a token pair, creating the user
// on first login and marking the email verified.
func (s *authService) VerifyCode(ctx context.Context, email, code string) (*TokenResult, error) {
	email = validator.NormalizeEmail(email)

	authCode, err := s.authRepo.GetAuthCode(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("verification code not found or expired: %w", models.ErrNotFound)
	}

	if authCode.Attempts >= repository.MaxAttempts {
		s.authRepo.DeleteAuthCode(ctx, email)
		return nil, fmt.Errorf("too many failed attempts: %w", models.ErrForbidden)
	}

	if authCode.Code != code {
		if err := s.authRepo.IncrementAuthCodeAttempts(ctx, email); err != nil {
			log.Printf("Failed to increment code attempts for %s: %v", email, err)
		}
		return nil, fmt.Errorf("invalid verification code: %w", models.ErrValidation)
	}

	if time.Now().After(authCode.ExpiresAt) {
		s.authRepo.DeleteAuthCode(ctx, email)
		return nil, fmt.Errorf("verification code expired: %w", models.ErrNotFound)
	}

	user, err := s.userRepo.GetOrCreate(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user: %w", err)
	}

	if !user.EmailVerified {
		if err := s.userRepo.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to mark email verified: %w", err)
		}
	}

	s.authRepo.DeleteAuthCode(ctx, email)

	pair, err := jwt.GenerateTokenPair(user.ID, user.Email, user.Role, true, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &TokenResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
	}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", models.ErrForbidden)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	pair, err := jwt.GenerateTokenPair(user.ID, user.Email, user.Role, user.EmailVerified, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &TokenResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		UserID:       user.ID,
	}, nil
}

func generateCode(length int) (string, error) {
	code := ""
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code += n.String()
	}
	return code, nil
}
