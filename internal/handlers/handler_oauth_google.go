package handlers

import (
	"net/http"

	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// googleSignInRequest carries the authorization code from the mobile client.
type googleSignInRequest struct {
	Code string `json:"code" binding:"required"`
}

// googleOAuthHandler handles Google sign-in.
type googleOAuthHandler struct {
	authHandler
	googleService portssvc.GoogleOAuthSvcFacade
}

// googleSignIn godoc
// @Summary Sign in with Google
// @Description Exchanges the authorization code, validates the ID token and issues application tokens
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   code body googleSignInRequest true "Authorization code"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} map[string]string "Invalid authorization code or ID token"
// @Router /auth/google [post]
func (h *googleOAuthHandler) googleSignIn(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req googleSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	token, err := h.googleService.ExchangeCodeForToken(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err, "Failed to exchange authorization code")
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No ID token in Google response"})
		return
	}
	payload, err := h.googleService.ValidateGoogleIDToken(c.Request.Context(), rawIDToken)
	if err != nil {
		respondError(c, err, "Failed to validate Google ID token")
		return
	}

	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	emailVerified, _ := payload.Claims["email_verified"].(bool)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google account has no email"})
		return
	}

	user, err := h.userService.CreateOAuthUser(c.Request.Context(), name, email,
		string(domain.ProviderGoogle), payload.Subject, emailVerified)
	if err != nil {
		respondError(c, err, "Failed to sign in with Google")
		return
	}
	resp, err := h.issueTokens(c, user)
	if err != nil {
		respondError(c, err, "Failed to issue tokens")
		return
	}

	logger.Info("google sign-in succeeded", "user_id", user.UserID)
	c.JSON(http.StatusOK, resp)
}
