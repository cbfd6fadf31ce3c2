package handlers

import (
	"net/http"

	"assessment-service/internal/dto"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login sends a one-time verification code to the given address.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.authService.Login(c.Request.Context(), req.Email); err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, nil, "Verification code sent")
}

func (h *AuthHandler) VerifyCode(c *gin.Context) {
	var req dto.VerifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.VerifyCode(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, dto.TokenPairResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.authService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, dto.TokenPairResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}
