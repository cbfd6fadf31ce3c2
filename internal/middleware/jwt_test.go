package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"assessment-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func claimsStub(role string, verified bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "u1")
		c.Set("role", role)
		c.Set("email_verified", verified)
		c.Next()
	}
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// gatedRouter mirrors the assessment route layout: eligibility is open to
// any authenticated caller, session operations require a verified student.
func gatedRouter(role string, verified bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(claimsStub(role, verified))

	assessments := router.Group("/assessments")
	{
		assessments.GET("/eligibility/:step", ok)

		sessions := assessments.Group("")
		sessions.Use(RequireRole(models.RoleStudent), RequireVerifiedEmail())
		{
			sessions.POST("/start", ok)
			sessions.POST("/:sessionId/complete", ok)
		}
	}
	return router
}

func perform(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAssessmentRouteGating(t *testing.T) {
	t.Run("verified student reaches session routes", func(t *testing.T) {
		router := gatedRouter(models.RoleStudent, true)
		assert.Equal(t, http.StatusOK, perform(router, http.MethodPost, "/assessments/start").Code)
	})

	t.Run("admin cannot start a session", func(t *testing.T) {
		router := gatedRouter(models.RoleAdmin, true)
		assert.Equal(t, http.StatusForbidden, perform(router, http.MethodPost, "/assessments/start").Code)
		assert.Equal(t, http.StatusForbidden, perform(router, http.MethodPost, "/assessments/s1/complete").Code)
	})

	t.Run("unverified student is stopped before session routes", func(t *testing.T) {
		router := gatedRouter(models.RoleStudent, false)
		assert.Equal(t, http.StatusForbidden, perform(router, http.MethodPost, "/assessments/start").Code)
	})

	t.Run("eligibility only needs authentication", func(t *testing.T) {
		router := gatedRouter(models.RoleStudent, false)
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/assessments/eligibility/2").Code)

		router = gatedRouter(models.RoleAdmin, true)
		assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/assessments/eligibility/1").Code)
	})
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(claimsStub(models.RoleAdmin, true))
	router.GET("/admin-only", RequireRole(models.RoleAdmin), ok)
	router.GET("/student-only", RequireRole(models.RoleStudent), ok)

	assert.Equal(t, http.StatusOK, perform(router, http.MethodGet, "/admin-only").Code)
	assert.Equal(t, http.StatusForbidden, perform(router, http.MethodGet, "/student-only").Code)
}
