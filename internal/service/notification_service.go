package service

import (
	"context"
	"encoding/json"
	"log"
)

// EmailSender is the outbound mail surface consumed by the notification
// worker.
type EmailSender interface {
	SendVerificationCode(to, code string) error
	SendCertificateIssued(to, level string, score int) error
}

// NotificationService consumes queued events and turns them into
// emails. It runs in the same binary, fed by the RabbitMQ consumers
// wired up in main.
type NotificationService struct {
	emailSender EmailSender
}

func NewNotificationService(emailSender EmailSender) *NotificationService {
	return &NotificationService{emailSender: emailSender}
}

func (s *NotificationService) HandleSendCode(ctx context.Context, data []byte) error {
	var event struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	log.Printf("Sending verification code to %s", event.Email)
	return s.emailSender.SendVerificationCode(event.Email, event.Code)
}

func (s *NotificationService) HandleCertificateIssued(ctx context.Context, data []byte) error {
	var event struct {
		CertificateID string `json:"certificate_id"`
		Email         string `json:"email"`
		Level         string `json:"level"`
		Score         int    `json:"score"`
	}

	if err := json.Unmarshal(data, &event); err != nil {
		return err
	}

	log.Printf("Sending certificate notification for %s to %s", event.CertificateID, event.Email)
	return s.emailSender.SendCertificateIssued(event.Email, event.Level, event.Score)
}
