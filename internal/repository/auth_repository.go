package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"assessment-service/internal/models"
	"assessment-service/pkg/cache"
)

const (
	CodeTTL     = 5 * time.Minute
	MaxAttempts = 5
)

type AuthCode struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

type AuthRepository interface {
	SaveAuthCode(ctx context.Context, email, code string) error
	GetAuthCode(ctx context.Context, email string) (*AuthCode, error)
	IncrementAuthCodeAttempts(ctx context.Context, email string) error
	DeleteAuthCode(ctx context.Context, email string) error
}

type authRepository struct {
	redis *cache.RedisClient
}

func NewAuthRepository(redis *cache.RedisClient) AuthRepository {
	return &authRepository{redis: redis}
}

func authCodeKey(email string) string {
	return fmt.Sprintf("auth:code:%s", email)
}

func (r *authRepository) SaveAuthCode(ctx context.Context, email, code string) error {
	authCode := AuthCode{
		Code:      code,
		ExpiresAt: time.Now().Add(CodeTTL),
		Attempts:  0,
	}

	data, err := json.Marshal(authCode)
	if err != nil {
		return fmt.Errorf("failed to marshal auth code: %w", err)
	}

	return r.redis.Set(ctx, authCodeKey(email), data, CodeTTL)
}

func (r *authRepository) GetAuthCode(ctx context.Context, email string) (*AuthCode, error) {
	data, err := r.redis.Get(ctx, authCodeKey(email))
	if err != nil {
		return nil, fmt.Errorf("auth code: %w", models.ErrNotFound)
	}

	var authCode AuthCode
	if err := json.Unmarshal([]byte(data), &authCode); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth code: %w", err)
	}

	return &authCode, nil
}

func (r *authRepository) IncrementAuthCodeAttempts(ctx context.Context, email string) error {
	authCode, err := r.GetAuthCode(ctx, email)
	if err != nil {
		return err
	}

	authCode.Attempts++

	data, err := json.Marshal(authCode)
	if err != nil {
		return fmt.Errorf("failed to marshal auth code: %w", err)
	}

	ttl := time.Until(authCode.ExpiresAt)
	if ttl <= 0 {
		return r.DeleteAuthCode(ctx, email)
	}
	return r.redis.Set(ctx, authCodeKey(email), data, ttl)
}

func (r *authRepository) DeleteAuthCode(ctx context.Context, email string) error {
	return r.redis.Delete(ctx, authCodeKey(email))
}
