package dto

// Auth requests.

type LoginRequest struct {
	Email string `json:"email" binding:"required"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Assessment requests.

type StartAssessmentRequest struct {
	Step int `json:"step" binding:"required,min=1,max=3"`
}

type SubmitAnswerRequest struct {
	QuestionID          string `json:"questionId" binding:"required"`
	SelectedOptionIndex *int   `json:"selectedOptionIndex" binding:"required"`
	TimeSpentSeconds    int    `json:"timeSpent"`
}

type NavigateRequest struct {
	Direction string `json:"direction" binding:"required,oneof=next previous"`
}

type CompleteAssessmentRequest struct {
	TotalTimeSeconds int `json:"totalTimeSpent"`
}

// Question management requests.

type CreateQuestionRequest struct {
	CompetencyID       string   `json:"competencyId" binding:"required"`
	Level              string   `json:"level" binding:"required"`
	Text               string   `json:"text" binding:"required"`
	Options            []string `json:"options" binding:"required"`
	CorrectOptionIndex *int     `json:"correctOptionIndex" binding:"required"`
}

type UpdateQuestionRequest struct {
	Level              string   `json:"level" binding:"required"`
	Text               string   `json:"text" binding:"required"`
	Options            []string `json:"options" binding:"required"`
	CorrectOptionIndex *int     `json:"correctOptionIndex" binding:"required"`
}

type CreateCompetencyRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName"`
}
