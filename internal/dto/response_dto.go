package dto

import (
	"assessment-service/internal/models"

	"github.com/gin-gonic/gin"
)

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

func JsonSuccess(c *gin.Context, status int, data interface{}, message ...string) {
	resp := SuccessResponse{Success: true, Data: data}
	if len(message) > 0 {
		resp.Message = message[0]
	}
	c.JSON(status, resp)
}

type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type UserResponse struct {
	ID                   string  `json:"id"`
	Email                string  `json:"email"`
	FirstName            string  `json:"firstName,omitempty"`
	LastName             string  `json:"lastName,omitempty"`
	Role                 string  `json:"role"`
	EmailVerified        bool    `json:"emailVerified"`
	HighestLevelAchieved *string `json:"highestLevelAchieved"`
	AssessmentStatus     string  `json:"assessmentStatus"`
	CreatedAt            string  `json:"createdAt"`
}

func NewUserResponse(u *models.User) UserResponse {
	resp := UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Role:             u.Role,
		EmailVerified:    u.EmailVerified,
		AssessmentStatus: string(u.AssessmentStatus),
		CreatedAt:        u.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if u.HighestLevelAchieved.Valid {
		level := u.HighestLevelAchieved.String
		resp.HighestLevelAchieved = &level
	}
	return resp
}

type CompetencyResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

func NewCompetencyResponse(comp *models.Competency) CompetencyResponse {
	return CompetencyResponse{
		ID:          comp.ID,
		Name:        comp.Name,
		Description: comp.Description,
		CreatedAt:   comp.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

type SessionResponse struct {
	ID                   string  `json:"id"`
	Step                 int     `json:"step"`
	Status               string  `json:"status"`
	CurrentQuestionIndex int     `json:"currentQuestionIndex"`
	TotalQuestions       int     `json:"totalQuestions"`
	Score                *int    `json:"score,omitempty"`
	LevelAchieved        *string `json:"levelAchieved,omitempty"`
	CanProceedToNextStep bool    `json:"canProceedToNextStep"`
	StartedAt            string  `json:"startedAt"`
	CompletedAt          *string `json:"completedAt,omitempty"`
}

func NewSessionResponse(s *models.TestSession) SessionResponse {
	resp := SessionResponse{
		ID:                   s.ID,
		Step:                 s.Step,
		Status:               string(s.Status),
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TotalQuestions:       s.TotalQuestions,
		CanProceedToNextStep: s.CanProceedToNextStep,
		StartedAt:            s.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if s.Score.Valid {
		score := int(s.Score.Int32)
		resp.Score = &score
	}
	if s.LevelAchieved.Valid {
		level := s.LevelAchieved.String
		resp.LevelAchieved = &level
	}
	if s.CompletedAt.Valid {
		completed := s.CompletedAt.Time.Format("2006-01-02T15:04:05Z07:00")
		resp.CompletedAt = &completed
	}
	return resp
}

type CertificateResponse struct {
	ID            string `json:"id"`
	SessionID     string `json:"sessionId"`
	LevelAchieved string `json:"levelAchieved"`
	IssuedDate    string `json:"issuedDate"`
}

func NewCertificateResponse(cert *models.Certificate) CertificateResponse {
	return CertificateResponse{
		ID:            cert.ID,
		SessionID:     cert.SessionID,
		LevelAchieved: string(cert.LevelAchieved),
		IssuedDate:    cert.IssuedDate.Format("2006-01-02T15:04:05Z07:00"),
	}
}

type QuestionResponse struct {
	ID                 string   `json:"id"`
	CompetencyID       string   `json:"competencyId"`
	Level              string   `json:"level"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	IsActive           bool     `json:"isActive"`
}

func NewQuestionResponse(q *models.Question) QuestionResponse {
	return QuestionResponse{
		ID:                 q.ID,
		CompetencyID:       q.CompetencyID,
		Level:              string(q.Level),
		Text:               q.Text,
		Options:            q.Options,
		CorrectOptionIndex: q.CorrectOptionIndex,
		IsActive:           q.IsActive,
	}
}
