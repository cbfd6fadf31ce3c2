package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"assessment-service/internal/middleware"
	"assessment-service/internal/models"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockAssessmentService struct {
	eligibilityFunc        func(ctx context.Context, userID string, step int) (*service.EligibilityResult, error)
	startFunc              func(ctx context.Context, userID string, step int) (*service.StartResult, error)
	getCurrentQuestionFunc func(ctx context.Context, userID, sessionID string) (*service.CurrentQuestionResult, error)
	submitAnswerFunc       func(ctx context.Context, userID, sessionID, questionID string, selectedOptionIndex, timeSpentSeconds int) (*service.AnswerResult, error)
	skipQuestionFunc       func(ctx context.Context, userID, sessionID string) (*service.SkipResult, error)
	navigateFunc           func(ctx context.Context, userID, sessionID, direction string) (*service.NavigateResult, error)
	completeFunc           func(ctx context.Context, userID, sessionID string, totalTimeSeconds int) (*service.CompletionResult, error)
	resultsFunc            func(ctx context.Context, userID, sessionID string) (*service.ResultsResult, error)
}

func (m *mockAssessmentService) Eligibility(ctx context.Context, userID string, step int) (*service.EligibilityResult, error) {
	if m.eligibilityFunc != nil {
		return m.eligibilityFunc(ctx, userID, step)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAssessmentService) Start(ctx context.Context, userID string, step int) (*service.StartResult, error) {
	if m.startFunc != nil {
		return m.startFunc(ctx, userID, step)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAssessmentService) GetCurrentQuestion(ctx context.Context, userID, sessionID string) (*service.CurrentQuestionResult, error) {
	if m.getCurrentQuestionFunc != nil {
		return m.getCurrentQuestionFunc(ctx, userID, sessionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAssessmentService) SubmitAnswer(ctx context.Context, userID, sessionID, questionID string, selectedOptionIndex, timeSpentSeconds int) (*service.AnswerResult, error) {
	if m.submitAnswerFunc != nil {
		return m.submitAnswerFunc(ctx, userID, sessionID, questionID, selectedOptionIndex, timeSpentSeconds)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAssessmentService) SkipQuestion(ctx context.Context, userID, sessionID string) (*service.SkipResult, error) {
	if m.skipQuestionFunc != nil {
		return m.skipQuestionFunc(ctx, userID, sessionID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAssessmentService) Navigate(ctx context.Context, userID, sessionID, direction string) (*service.NavigateResult, error) {
	if m.navigateFunc != nil {
		return m.navigateFunc(ctx, userID, sessionID, direction)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAssessmentService) Complete(ctx context.Context, userID, sessionID string, totalTimeSeconds int) (*service.CompletionResult, error) {
	if m.completeFunc != nil {
		return m.completeFunc(ctx, userID, sessionID, totalTimeSeconds)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAssessmentService) Results(ctx context.Context, userID, sessionID string) (*service.ResultsResult, error) {
	if m.resultsFunc != nil {
		return m.resultsFunc(ctx, userID, sessionID)
	}
	return nil, errors.New("not implemented")
}

func setupRouter(svc service.AssessmentService, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})

	handler := NewAssessmentHandler(svc)
	assessments := router.Group("/assessments")
	{
		assessments.GET("/eligibility/:step", handler.Eligibility)
		assessments.POST("/start", handler.Start)
		assessments.GET("/:sessionId/current-question", handler.GetCurrentQuestion)
		assessments.POST("/:sessionId/submit-answer", handler.SubmitAnswer)
		assessments.POST("/:sessionId/skip-question", handler.SkipQuestion)
		assessments.POST("/:sessionId/navigate", handler.Navigate)
		assessments.POST("/:sessionId/complete", handler.Complete)
		assessments.GET("/:sessionId/results", handler.GetResults)
	}
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAssessmentHandler_Eligibility(t *testing.T) {
	t.Run("returns eligibility payload", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.eligibilityFunc = func(ctx context.Context, userID string, step int) (*service.EligibilityResult, error) {
			assert.Equal(t, "u1", userID)
			assert.Equal(t, 2, step)
			level := models.LevelA2
			return &service.EligibilityResult{Eligible: true, Step: step, CurrentLevel: &level}, nil
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodGet, "/assessments/eligibility/2", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				Eligible     bool   `json:"eligible"`
				Step         int    `json:"step"`
				CurrentLevel string `json:"currentLevel"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.True(t, resp.Data.Eligible)
		assert.Equal(t, "A2", resp.Data.CurrentLevel)
	})

	t.Run("non-numeric step is a bad request", func(t *testing.T) {
		router := setupRouter(&mockAssessmentService{}, "u1")
		w := doJSON(t, router, http.MethodGet, "/assessments/eligibility/two", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAssessmentHandler_Start(t *testing.T) {
	t.Run("new session is created", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.startFunc = func(ctx context.Context, userID string, step int) (*service.StartResult, error) {
			return &service.StartResult{SessionID: "s1", Step: step, TotalQuestions: 44, TimeLimitSeconds: 2640}, nil
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/start", map[string]int{"step": 1})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("resumed session returns 200", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.startFunc = func(ctx context.Context, userID string, step int) (*service.StartResult, error) {
			return &service.StartResult{SessionID: "s1", Step: step, Resumed: true}, nil
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/start", map[string]int{"step": 1})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("forbidden start maps to 403", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.startFunc = func(ctx context.Context, userID string, step int) (*service.StartResult, error) {
			return nil, models.ErrForbidden
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/start", map[string]int{"step": 2})

		assert.Equal(t, http.StatusForbidden, w.Code)

		var resp struct {
			Success    bool `json:"success"`
			StatusCode int  `json:"statusCode"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("step outside 1..3 fails binding", func(t *testing.T) {
		router := setupRouter(&mockAssessmentService{}, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/start", map[string]int{"step": 4})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAssessmentHandler_SubmitAnswer(t *testing.T) {
	t.Run("answer is forwarded and the result returned", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.submitAnswerFunc = func(ctx context.Context, userID, sessionID, questionID string, selectedOptionIndex, timeSpentSeconds int) (*service.AnswerResult, error) {
			assert.Equal(t, "s1", sessionID)
			assert.Equal(t, "q1", questionID)
			assert.Equal(t, 0, selectedOptionIndex)
			return &service.AnswerResult{IsCorrect: true, CurrentQuestionIndex: 1}, nil
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/s1/submit-answer", map[string]any{
			"questionId":          "q1",
			"selectedOptionIndex": 0,
			"timeSpent":           25,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				IsCorrect            bool `json:"isCorrect"`
				CurrentQuestionIndex int  `json:"currentQuestionIndex"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.IsCorrect)
		assert.Equal(t, 1, resp.Data.CurrentQuestionIndex)
	})

	t.Run("missing option index is a bad request", func(t *testing.T) {
		router := setupRouter(&mockAssessmentService{}, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/s1/submit-answer", map[string]any{
			"questionId": "q1",
			"timeSpent":  25,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("double answer maps to 400", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.submitAnswerFunc = func(ctx context.Context, userID, sessionID, questionID string, selectedOptionIndex, timeSpentSeconds int) (*service.AnswerResult, error) {
			return nil, models.ErrInvalidState
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/s1/submit-answer", map[string]any{
			"questionId":          "q1",
			"selectedOptionIndex": 1,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAssessmentHandler_Navigate(t *testing.T) {
	t.Run("previous direction is forwarded", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.navigateFunc = func(ctx context.Context, userID, sessionID, direction string) (*service.NavigateResult, error) {
			assert.Equal(t, service.DirectionPrevious, direction)
			return &service.NavigateResult{CurrentQuestionIndex: 1, Direction: direction}, nil
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/s1/navigate", map[string]string{"direction": "previous"})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad direction fails binding", func(t *testing.T) {
		router := setupRouter(&mockAssessmentService{}, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/s1/navigate", map[string]string{"direction": "up"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAssessmentHandler_Complete(t *testing.T) {
	t.Run("completion payload includes the certificate", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.completeFunc = func(ctx context.Context, userID, sessionID string, totalTimeSeconds int) (*service.CompletionResult, error) {
			level := models.LevelA2
			return &service.CompletionResult{
				SessionID:            sessionID,
				Score:                86,
				LevelAchieved:        &level,
				CanProceedToNextStep: true,
				Certificate:          &models.Certificate{ID: "cert1", SessionID: sessionID, LevelAchieved: level},
			}, nil
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/s1/complete", map[string]int{"totalTimeSpent": 1800})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				Test struct {
					Score                int    `json:"score"`
					LevelAchieved        string `json:"levelAchieved"`
					CanProceedToNextStep bool   `json:"canProceedToNextStep"`
				} `json:"test"`
				Certificate struct {
					ID string `json:"id"`
				} `json:"certificate"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 86, resp.Data.Test.Score)
		assert.Equal(t, "A2", resp.Data.Test.LevelAchieved)
		assert.True(t, resp.Data.Test.CanProceedToNextStep)
		assert.Equal(t, "cert1", resp.Data.Certificate.ID)
	})

	t.Run("not found session maps to 404", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.completeFunc = func(ctx context.Context, userID, sessionID string, totalTimeSeconds int) (*service.CompletionResult, error) {
			return nil, models.ErrNotFound
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodPost, "/assessments/ghost/complete", map[string]int{"totalTimeSpent": 100})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAssessmentHandler_GetResults(t *testing.T) {
	t.Run("breakdown is returned for a finished session", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.resultsFunc = func(ctx context.Context, userID, sessionID string) (*service.ResultsResult, error) {
			assert.Equal(t, "s1", sessionID)
			level := models.LevelA2
			idx := 2
			return &service.ResultsResult{
				SessionID:            sessionID,
				Step:                 1,
				Score:                86,
				LevelAchieved:        &level,
				CanProceedToNextStep: true,
				TotalTimeSeconds:     1800,
				Responses: []service.ResponseView{
					{QuestionID: "q1", Position: 0, SelectedOptionIndex: &idx, IsCorrect: true, TimeSpentSeconds: 40},
					{QuestionID: "q2", Position: 1, IsSkipped: true},
				},
				Certificate: &models.Certificate{ID: "cert1", SessionID: sessionID, LevelAchieved: level},
			}, nil
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodGet, "/assessments/s1/results", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				Score         int    `json:"score"`
				LevelAchieved string `json:"levelAchieved"`
				Responses     []struct {
					QuestionID string `json:"questionId"`
					IsCorrect  bool   `json:"isCorrect"`
					IsSkipped  bool   `json:"isSkipped"`
				} `json:"responses"`
				Certificate struct {
					ID string `json:"id"`
				} `json:"certificate"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 86, resp.Data.Score)
		assert.Equal(t, "A2", resp.Data.LevelAchieved)
		require.Len(t, resp.Data.Responses, 2)
		assert.True(t, resp.Data.Responses[0].IsCorrect)
		assert.True(t, resp.Data.Responses[1].IsSkipped)
		assert.Equal(t, "cert1", resp.Data.Certificate.ID)
	})

	t.Run("in-progress session maps to 400", func(t *testing.T) {
		svc := &mockAssessmentService{}
		svc.resultsFunc = func(ctx context.Context, userID, sessionID string) (*service.ResultsResult, error) {
			return nil, models.ErrInvalidState
		}

		router := setupRouter(svc, "u1")
		w := doJSON(t, router, http.MethodGet, "/assessments/s1/results", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
