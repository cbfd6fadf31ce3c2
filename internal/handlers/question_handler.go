package handlers

import (
	"net/http"

	"assessment-service/internal/dto"
	"assessment-service/internal/models"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	questionService service.QuestionService
}

func NewQuestionHandler(questionService service.QuestionService) *QuestionHandler {
	return &QuestionHandler{
		questionService: questionService,
	}
}

func (h *QuestionHandler) Create(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	question := &models.Question{
		CompetencyID:       req.CompetencyID,
		Level:              models.Level(req.Level),
		Text:               req.Text,
		Options:            req.Options,
		CorrectOptionIndex: *req.CorrectOptionIndex,
		IsActive:           true,
	}

	if err := h.questionService.CreateQuestion(c.Request.Context(), question); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusCreated, dto.NewQuestionResponse(question))
}

func (h *QuestionHandler) Get(c *gin.Context) {
	question, err := h.questionService.GetQuestion(c.Request.Context(), c.Param("questionId"))
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, dto.NewQuestionResponse(question))
}

func (h *QuestionHandler) Update(c *gin.Context) {
	var req dto.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	question, err := h.questionService.GetQuestion(c.Request.Context(), c.Param("questionId"))
	if err != nil {
		dto.FromError(c, err)
		return
	}

	question.Level = models.Level(req.Level)
	question.Text = req.Text
	question.Options = req.Options
	question.CorrectOptionIndex = *req.CorrectOptionIndex

	if err := h.questionService.UpdateQuestion(c.Request.Context(), question); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, dto.NewQuestionResponse(question))
}

func (h *QuestionHandler) Deactivate(c *gin.Context) {
	if err := h.questionService.DeactivateQuestion(c.Request.Context(), c.Param("questionId")); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, nil, "Question deactivated")
}

func (h *QuestionHandler) ListByCompetency(c *gin.Context) {
	questions, err := h.questionService.ListByCompetency(c.Request.Context(), c.Param("competencyId"))
	if err != nil {
		dto.FromError(c, err)
		return
	}

	resp := make([]dto.QuestionResponse, len(questions))
	for i, q := range questions {
		resp[i] = dto.NewQuestionResponse(q)
	}

	dto.JsonSuccess(c, http.StatusOK, resp)
}

func (h *QuestionHandler) CreateCompetency(c *gin.Context) {
	var req dto.CreateCompetencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	competency := &models.Competency{
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.questionService.CreateCompetency(c.Request.Context(), competency); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusCreated, dto.NewCompetencyResponse(competency))
}

func (h *QuestionHandler) ListCompetencies(c *gin.Context) {
	competencies, err := h.questionService.ListCompetencies(c.Request.Context())
	if err != nil {
		dto.FromError(c, err)
		return
	}

	resp := make([]dto.CompetencyResponse, len(competencies))
	for i, comp := range competencies {
		resp[i] = dto.NewCompetencyResponse(comp)
	}

	dto.JsonSuccess(c, http.StatusOK, resp)
}

func (h *QuestionHandler) UpdateCompetency(c *gin.Context) {
	var req dto.CreateCompetencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	competency := &models.Competency{
		ID:          c.Param("competencyId"),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := h.questionService.UpdateCompetency(c.Request.Context(), competency); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, dto.NewCompetencyResponse(competency))
}

func (h *QuestionHandler) DeleteCompetency(c *gin.Context) {
	if err := h.questionService.DeleteCompetency(c.Request.Context(), c.Param("competencyId")); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, nil, "Competency deleted")
}
