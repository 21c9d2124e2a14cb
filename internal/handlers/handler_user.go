package handlers

import (
	"net/http"

	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

// userHandler handles HTTP requests related to the authenticated user.
type userHandler struct {
	userService portssvc.UserSvcFacade
}

// newUserHandler creates a new userHandler.
func newUserHandler(userService portssvc.UserSvcFacade) *userHandler {
	return &userHandler{userService: userService}
}

// registerUserRoutes wires the user endpoints into the router group.
func registerUserRoutes(rg *gin.RouterGroup, userService portssvc.UserSvcFacade) {
	h := newUserHandler(userService)

	users := rg.Group("/users")
	{
		users.GET("/me", h.getProfile)
		users.PUT("/me/push-token", h.registerPushToken)
	}
}

// getProfile godoc
// @Summary Get the caller's profile
// @Tags users
// @Produce  json
// @Success 200 {object} dto.UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Router /users/me [get]
func (h *userHandler) getProfile(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve profile")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// registerPushToken godoc
// @Summary Register the caller's push token
// @Description Stores the Expo push token used for exchange and chat alerts
// @Tags users
// @Accept  json
// @Produce  json
// @Param   token body dto.RegisterPushTokenRequest true "Push token"
// @Success 204 "Registered"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Router /users/me/push-token [put]
func (h *userHandler) registerPushToken(c *gin.Context) {
	var req dto.RegisterPushTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	if err := h.userService.RegisterPushToken(c.Request.Context(), userID, req.PushToken); err != nil {
		respondError(c, err, "Failed to register push token")
		return
	}
	c.Status(http.StatusNoContent)
}
