package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bookswapp/bookswap_backend/internal/apperrors"
	"github.com/bookswapp/bookswap_backend/internal/core/domain"
	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/bookswapp/bookswap_backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// exchangeHandler handles HTTP requests related to exchange negotiations.
type exchangeHandler struct {
	exchangeService portssvc.ExchangeSvcFacade
	chatService     portssvc.ChatSvcFacade
}

// newExchangeHandler creates a new exchangeHandler.
func newExchangeHandler(exchangeService portssvc.ExchangeSvcFacade, chatService portssvc.ChatSvcFacade) *exchangeHandler {
	return &exchangeHandler{
		exchangeService: exchangeService,
		chatService:     chatService,
	}
}

// RegisterExchangeRoutes wires the exchange endpoints into the router group.
func RegisterExchangeRoutes(rg *gin.RouterGroup, exchangeService portssvc.ExchangeSvcFacade, chatService portssvc.ChatSvcFacade) {
	h := newExchangeHandler(exchangeService, chatService)

	exchanges := rg.Group("/exchanges")
	{
		exchanges.POST("", h.createExchange)
		exchanges.GET("/received", h.listReceived)
		exchanges.GET("/sent", h.listSent)
		exchanges.GET("/pending", h.checkPending)
		exchanges.GET("/:exchangeID", h.getExchange)
		exchanges.PATCH("/:exchangeID/decision", h.decideExchange)
		exchanges.POST("/:exchangeID/offer", h.offerBook)
		exchanges.PUT("/:exchangeID/location", h.proposeLocation)
		exchanges.POST("/:exchangeID/confirm", h.confirmExchange)
		exchanges.POST("/:exchangeID/cancel", h.cancelExchange)
	}
}

// createExchange godoc
// @Summary Create a new exchange request
// @Description Opens a pending exchange for an available book the caller does not own
// @Tags exchanges
// @Accept  json
// @Produce  json
// @Param   exchange body dto.CreateExchangeRequest true "Exchange request"
// @Success 201 {object} dto.ExchangeResponse
// @Failure 400 {object} map[string]string "Invalid request or invariant violation"
// @Failure 404 {object} map[string]string "Book not found"
// @Failure 409 {object} map[string]string "Duplicate pending exchange"
// @Router /exchanges [post]
func (h *exchangeHandler) createExchange(c *gin.Context) {
	var req dto.CreateExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	exchange, err := h.exchangeService.CreateRequest(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create exchange request")
		return
	}
	c.JSON(http.StatusCreated, dto.ToExchangeResponse(exchange))
}

// getExchange godoc
// @Summary Get an exchange
// @Description Retrieves an exchange snapshot; only participants may view it
// @Tags exchanges
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Success 200 {object} dto.ExchangeResponse
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Exchange not found"
// @Router /exchanges/{exchangeID} [get]
func (h *exchangeHandler) getExchange(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	exchange, err := h.exchangeService.GetByID(c.Request.Context(), c.Param("exchangeID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve exchange")
		return
	}
	if _, participant := exchange.RoleOf(userID); !participant {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant of this exchange"})
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeResponse(exchange))
}

// decideExchange godoc
// @Summary Accept or reject a pending exchange
// @Description Only the receiver may decide; acceptance creates the chat channel
// @Tags exchanges
// @Accept  json
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Param   decision body dto.DecideExchangeRequest true "Decision"
// @Success 200 {object} dto.ExchangeResponse
// @Failure 400 {object} map[string]string "Invalid transition"
// @Failure 403 {object} map[string]string "Caller is not the receiver"
// @Failure 404 {object} map[string]string "Exchange not found"
// @Router /exchanges/{exchangeID}/decision [patch]
func (h *exchangeHandler) decideExchange(c *gin.Context) {
	var req dto.DecideExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	exchange, err := h.exchangeService.Decide(c.Request.Context(), c.Param("exchangeID"), userID, portssvc.ExchangeDecision(req.Decision))
	if err != nil {
		respondError(c, err, "Failed to decide exchange")
		return
	}

	resp := dto.ToExchangeResponse(exchange)
	if req.Decision == string(portssvc.DecisionAccept) {
		// EnsureChannel is idempotent; fetch the channel to include its ID.
		if channel, chErr := h.chatService.EnsureChannel(c.Request.Context(), exchange.RequesterID, exchange.ReceiverID, exchange.ExchangeID); chErr == nil {
			resp.ChannelID = channel.ChannelID
		} else if !errors.Is(chErr, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(c.Request.Context()).Warn("failed to resolve chat channel after accept", "error", chErr)
		}
	}
	c.JSON(http.StatusOK, resp)
}

// offerBook godoc
// @Summary Offer a book for the exchange
// @Description Attaches a book owned by the requester as the swap counterpart; single-shot
// @Tags exchanges
// @Accept  json
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Param   offer body dto.OfferBookRequest true "Offered book"
// @Success 200 {object} dto.ExchangeResponse
// @Failure 400 {object} map[string]string "Invariant violation"
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Exchange or book not found"
// @Router /exchanges/{exchangeID}/offer [post]
func (h *exchangeHandler) offerBook(c *gin.Context) {
	var req dto.OfferBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	exchange, err := h.exchangeService.OfferBook(c.Request.Context(), c.Param("exchangeID"), userID, req.BookID)
	if err != nil {
		respondError(c, err, "Failed to offer book")
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeResponse(exchange))
}

// proposeLocation godoc
// @Summary Propose the meeting location
// @Description Sets the meeting point on an accepted exchange; later proposals overwrite earlier ones
// @Tags exchanges
// @Accept  json
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Param   location body dto.ProposeLocationRequest true "Meeting location"
// @Success 200 {object} dto.ExchangeResponse
// @Failure 400 {object} map[string]string "Invalid transition or invariant violation"
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Exchange not found"
// @Router /exchanges/{exchangeID}/location [put]
func (h *exchangeHandler) proposeLocation(c *gin.Context) {
	var req dto.ProposeLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	exchange, err := h.exchangeService.ProposeLocation(c.Request.Context(), c.Param("exchangeID"), userID, req.ToMeetingLocation())
	if err != nil {
		respondError(c, err, "Failed to propose meeting location")
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeResponse(exchange))
}

// confirmExchange godoc
// @Summary Confirm the exchange
// @Description Records the caller's confirmation; the second confirmation completes the exchange
// @Tags exchanges
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Success 200 {object} dto.ConfirmExchangeResponse
// @Failure 400 {object} map[string]string "Invalid transition or invariant violation"
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Exchange not found"
// @Failure 409 {object} map[string]string "Concurrent update detected"
// @Router /exchanges/{exchangeID}/confirm [post]
func (h *exchangeHandler) confirmExchange(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	exchange, completed, err := h.exchangeService.Confirm(c.Request.Context(), c.Param("exchangeID"), userID)
	if err != nil {
		respondError(c, err, "Failed to confirm exchange")
		return
	}
	c.JSON(http.StatusOK, dto.ConfirmExchangeResponse{
		Exchange:  dto.ToExchangeResponse(exchange),
		Completed: completed,
	})
}

// cancelExchange godoc
// @Summary Cancel the exchange
// @Description Aborts a pending or accepted exchange; either participant may cancel
// @Tags exchanges
// @Produce  json
// @Param   exchangeID path string true "Exchange ID"
// @Success 200 {object} dto.ExchangeResponse
// @Failure 400 {object} map[string]string "Exchange already closed or completed"
// @Failure 403 {object} map[string]string "Not a participant"
// @Failure 404 {object} map[string]string "Exchange not found"
// @Router /exchanges/{exchangeID}/cancel [post]
func (h *exchangeHandler) cancelExchange(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	exchange, err := h.exchangeService.Cancel(c.Request.Context(), c.Param("exchangeID"), userID)
	if err != nil {
		respondError(c, err, "Failed to cancel exchange")
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeResponse(exchange))
}

// listReceived godoc
// @Summary List received exchange requests
// @Description Lists exchanges where the caller is the receiver, newest first
// @Tags exchanges
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {array} dto.ExchangeResponse
// @Router /exchanges/received [get]
func (h *exchangeHandler) listReceived(c *gin.Context) {
	h.listExchanges(c, h.exchangeService.ListReceivedFor)
}

// listSent godoc
// @Summary List sent exchange requests
// @Description Lists exchanges where the caller is the requester, newest first
// @Tags exchanges
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {array} dto.ExchangeResponse
// @Router /exchanges/sent [get]
func (h *exchangeHandler) listSent(c *gin.Context) {
	h.listExchanges(c, h.exchangeService.ListSentFor)
}

func (h *exchangeHandler) listExchanges(c *gin.Context, list func(ctx context.Context, userID string, limit, offset int) ([]domain.Exchange, error)) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	limit, offset := paginationParams(c)

	exchanges, err := list(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err, "Failed to list exchanges")
		return
	}
	c.JSON(http.StatusOK, dto.ToExchangeResponses(exchanges))
}

// checkPending godoc
// @Summary Check for a pending exchange
// @Description Reports whether the caller already has a pending request for the book
// @Tags exchanges
// @Produce  json
// @Param   bookID query string true "Requested book ID"
// @Param   receiverID query string true "Book owner ID"
// @Success 200 {object} map[string]bool
// @Router /exchanges/pending [get]
func (h *exchangeHandler) checkPending(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	bookID := c.Query("bookID")
	receiverID := c.Query("receiverID")
	if bookID == "" || receiverID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bookID and receiverID query parameters are required"})
		return
	}

	exists, err := h.exchangeService.HasPendingBetween(c.Request.Context(), bookID, userID, receiverID)
	if err != nil {
		respondError(c, err, "Failed to check pending exchange")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": exists})
}
