package handlers

import (
	"net/http"

	"assessment-service/internal/dto"
	"assessment-service/internal/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, dto.NewUserResponse(user))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.GetString("user_id")

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.JsonError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req.FirstName, req.LastName)
	if err != nil {
		dto.FromError(c, err)
		return
	}

	dto.JsonSuccess(c, http.StatusOK, dto.NewUserResponse(user))
}
