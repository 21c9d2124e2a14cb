package handlers

import (
	"net/http"

	portssvc "github.com/bookswapp/bookswap_backend/internal/core/ports/services"
	"github.com/bookswapp/bookswap_backend/internal/dto"
	"github.com/gin-gonic/gin"
)

// chatHandler handles HTTP requests related to chat channels and messages.
type chatHandler struct {
	chatService portssvc.ChatSvcFacade
}

// newChatHandler creates a new chatHandler.
func newChatHandler(chatService portssvc.ChatSvcFacade) *chatHandler {
	return &chatHandler{chatService: chatService}
}

// registerChatRoutes wires the chat endpoints into the router group.
func registerChatRoutes(rg *gin.RouterGroup, chatService portssvc.ChatSvcFacade) {
	h := newChatHandler(chatService)

	chats := rg.Group("/chats")
	{
		chats.GET("", h.listChannels)
		chats.GET("/:channelID/messages", h.listMessages)
		chats.POST("/:channelID/messages", h.sendMessage)
	}
}

// listChannels godoc
// @Summary List the caller's conversations
// @Description Lists chat channels with their latest message, most recent first
// @Tags chats
// @Produce  json
// @Success 200 {array} domain.ChatPreview
// @Router /chats [get]
func (h *chatHandler) listChannels(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	previews, err := h.chatService.ListChannelsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, previews)
}

// listMessages godoc
// @Summary List a channel's messages
// @Description Lists messages in send order; only channel members may read
// @Tags chats
// @Produce  json
// @Param   channelID path string true "Channel ID"
// @Param   limit query int false "Page size" default(50)
// @Success 200 {array} dto.MessageResponse
// @Failure 403 {object} map[string]string "Not a channel member"
// @Failure 404 {object} map[string]string "Channel not found"
// @Router /chats/{channelID}/messages [get]
func (h *chatHandler) listMessages(c *gin.Context) {
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}
	limit, _ := paginationParams(c)

	messages, err := h.chatService.ListMessages(c.Request.Context(), c.Param("channelID"), userID, limit)
	if err != nil {
		respondError(c, err, "Failed to list messages")
		return
	}
	c.JSON(http.StatusOK, dto.ToMessageResponses(messages))
}

// sendMessage godoc
// @Summary Send a message
// @Description Posts a message to a channel the caller belongs to
// @Tags chats
// @Accept  json
// @Produce  json
// @Param   channelID path string true "Channel ID"
// @Param   message body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.MessageResponse
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 403 {object} map[string]string "Not a channel member"
// @Failure 404 {object} map[string]string "Channel not found"
// @Router /chats/{channelID}/messages [post]
func (h *chatHandler) sendMessage(c *gin.Context) {
	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	userID, ok := authenticatedUserID(c)
	if !ok {
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), c.Param("channelID"), userID, req.Content)
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, dto.ToMessageResponse(message))
}
