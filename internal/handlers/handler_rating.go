package handlers

import (
	"net/http"

	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

// ratingHandler handles HTTP requests for exchange ratings.
type ratingHandler struct {
	ratingService portssvc.RatingSvcFacade
}

// newRatingHandler creates a new ratingHandler.
func newRatingHandler(ratingService portssvc.RatingSvcFacade) *ratingHandler {
	return &ratingHandler{ratingService: ratingService}
}

// registerRatingRoutes wires the rating endpoints into the router group.
func registerRatingRoutes(rg *gin.RouterGroup, ratingService portssvc.RatingSvcFacade) {
	h := newRatingHandler(ratingService)

	ratings := rg.Group("/ratings")
	{
		ratings.POST("", h.createRating)
		ratings.GET("/user/:userID", h.getUserRatings)
		ratings.GET("/exchange/:exchangeID", h.getExchangeRatings)
		ratings.GET("/exchange/:exchangeID/me", h.hasRated)
	}
}

// createRating godoc
// @Summary Rate a completed exchange
// @Description Records the caller's rating of the other participant; single-shot per participant
// @Tags ratings
// @Accept  json
// @Produce  json
// @Param   rating body dto.CreateRatingRequest true "Rating"
// @Success 201 {object} dto.RatingResponse
// @Failure 400 {object} map[string]string "Invalid request or exchange not completed"
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Exchange not found"
// @Failure 409 {object} map[string]string "Already rated"
// @Router /ratings [post]
func (h *ratingHandler) createRating(c *gin.Context) {
	var req dto.CreateRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	rating, err := h.ratingService.RateExchange(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err, "Failed to create rating")
		return
	}
	c.JSON(http.StatusCreated, dto.ToRatingResponse(rating))
}

// getUserRatings godoc
// @Summary Get a user's ratings
// @Description Aggregates the ratings a user has received, newest first
// @Tags ratings
// @Produce  json
// @Param   userID path string true "User ID"
// @Success 200 {object} dto.UserRatingsResponse
// @Router /ratings/user/{userID} [get]
func (h *ratingHandler) getUserRatings(c *gin.Context) {
	summary, err := h.ratingService.GetUserRatings(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve ratings")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserRatingsResponse(summary))
}

// getExchangeRatings godoc
// @Summary Get an exchange's ratings
// @Description Retrieves both sides' ratings of an exchange
// @Tags ratings
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Success 200 {object} dto.ExchangeRatingsResponse
// @Failure 404 {object} map[string]string "Exchange not found"
// @Router /ratings/exchange/{exchangeID} [get]
func (h *ratingHandler) getExchangeRatings(c *gin.Context) {
	ratings, err := h.ratingService.GetExchangeRatings(c.Request.Context(), c.Param("exchangeID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve exchange ratings")
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeRatingsResponse(ratings))
}

// hasRated godoc
// @Summary Check whether the caller rated an exchange
// @Tags ratings
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Success 200 {object} map[string]bool
// @Router /ratings/exchange/{exchangeID}/me [get]
func (h *ratingHandler) hasRated(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	rated, err := h.ratingService.HasRated(c.Request.Context(), c.Param("exchangeID"), userID)
	if err != nil {
		respondError(c, err, "Failed to check rating")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rated": rated})
}
