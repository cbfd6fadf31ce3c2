package handlers

import (
	"net/http"
	"strconv"

	"assessment-service/internal/dto"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AssessmentHandler struct {
	assessmentService service.AssessmentService
}

func NewAssessmentHandler(assessmentService service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{
		assessmentService: assessmentService,
	}
}

func (h *AssessmentHandler) Eligibility(c *gin.Context) {
	userID := c.GetString("user_id")

	step, err := strconv.Atoi(c.Param("step"))
	if err != nil || step < 1 || step > 3 {
		dto.JsonError(c, http.StatusBadRequest, "Path parameter 'step' must be 1, 2 or 3")
		return
	}

	result, err := h.assessmentService.Eligibility(c.Request.Context(), userID, step)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	resp := gin.H{
		"eligible": result.Eligible,
		"step":     result.Step,
	}
	if result.CurrentLevel != nil {
		resp["currentLevel"] = string(*result.CurrentLevel)
	}
	if result.Reason != "" {
		resp["reason"] = result.Reason
	}

	dto.JsonSuccess(c, http.StatusOK, resp)
}

func (h *AssessmentHandler) Start(c *gin.Context) {
	userID := c.GetString("user_id")

	var req dto.StartAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.assessmentService.Start(c.Request.Context(), userID, req.Step)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}

	dto.JsonSuccess(c, status, gin.H{
		"sessionId":            result.SessionID,
		"step":                 result.Step,
		"currentQuestionIndex": result.CurrentQuestionIndex,
		"totalQuestions":       result.TotalQuestions,
		"timeLimitSeconds":     result.TimeLimitSeconds,
		"resumed":              result.Resumed,
	})
}

func (h *AssessmentHandler) GetCurrentQuestion(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("sessionId")

	result, err := h.assessmentService.GetCurrentQuestion(c.Request.Context(), userID, sessionID)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, gin.H{
		"question": gin.H{
			"id":           result.Question.ID,
			"competencyId": result.Question.CompetencyID,
			"level":        string(result.Question.Level),
			"text":         result.Question.Text,
			"options":      result.Question.Options,
		},
		"currentQuestionIndex": result.CurrentQuestionIndex,
		"totalQuestions":       result.TotalQuestions,
		"questionsAnswered":    result.QuestionsAnswered,
		"timeRemainingSeconds": result.TimeRemainingSeconds,
		"canSkip":              result.CanSkip,
		"canGoNext":            result.CanGoNext,
		"canGoPrevious":        result.CanGoPrevious,
		"canSubmitTest":        result.CanSubmitTest,
	})
}

func (h *AssessmentHandler) SubmitAnswer(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("sessionId")

	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.assessmentService.SubmitAnswer(c.Request.Context(), userID, sessionID, req.QuestionID, *req.SelectedOptionIndex, req.TimeSpentSeconds)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, gin.H{
		"isCorrect":            result.IsCorrect,
		"currentQuestionIndex": result.CurrentQuestionIndex,
		"isLastQuestion":       result.IsLastQuestion,
	})
}

func (h *AssessmentHandler) SkipQuestion(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("sessionId")

	result, err := h.assessmentService.SkipQuestion(c.Request.Context(), userID, sessionID)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, gin.H{
		"currentQuestionIndex": result.CurrentQuestionIndex,
		"isLastQuestion":       result.IsLastQuestion,
	})
}

func (h *AssessmentHandler) Navigate(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("sessionId")

	var req dto.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.assessmentService.Navigate(c.Request.Context(), userID, sessionID, req.Direction)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, gin.H{
		"currentQuestionIndex": result.CurrentQuestionIndex,
		"direction":            result.Direction,
	})
}

func (h *AssessmentHandler) Complete(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("sessionId")

	var req dto.CompleteAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.assessmentService.Complete(c.Request.Context(), userID, sessionID, req.TotalTimeSeconds)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	test := gin.H{
		"sessionId":            result.SessionID,
		"score":                result.Score,
		"canProceedToNextStep": result.CanProceedToNextStep,
		"blocksRetake":         result.BlocksRetake,
	}
	if result.LevelAchieved != nil {
		test["levelAchieved"] = string(*result.LevelAchieved)
	}

	resp := gin.H{"test": test}
	if result.Certificate != nil {
		resp["certificate"] = dto.NewCertificateResponse(result.Certificate)
	}

	dto.JsonSuccess(c, http.StatusOK, resp)
}

// GetResults returns the per-question breakdown of a finished session.
func (h *AssessmentHandler) GetResults(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.Param("sessionId")

	result, err := h.assessmentService.Results(c.Request.Context(), userID, sessionID)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	responses := make([]gin.H, len(result.Responses))
	for i, r := range result.Responses {
		row := gin.H{
			"questionId":       r.QuestionID,
			"position":         r.Position,
			"isCorrect":        r.IsCorrect,
			"isSkipped":        r.IsSkipped,
			"timeSpentSeconds": r.TimeSpentSeconds,
		}
		if r.SelectedOptionIndex != nil {
			row["selectedOptionIndex"] = *r.SelectedOptionIndex
		}
		responses[i] = row
	}

	resp := gin.H{
		"sessionId":            result.SessionID,
		"step":                 result.Step,
		"score":                result.Score,
		"canProceedToNextStep": result.CanProceedToNextStep,
		"blocksRetake":         result.BlocksRetake,
		"totalTimeSeconds":     result.TotalTimeSeconds,
		"responses":            responses,
	}
	if result.LevelAchieved != nil {
		resp["levelAchieved"] = string(*result.LevelAchieved)
	}
	if result.Certificate != nil {
		resp["certificate"] = dto.NewCertificateResponse(result.Certificate)
	}

	dto.JsonSuccess(c, http.StatusOK, resp)
}
