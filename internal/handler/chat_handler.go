package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/helpdock/helpdock/internal/pkg/response"
	"github.com/helpdock/helpdock/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type chatRequest struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.chat.Answer(c.Request.Context(), req.Message, req.Email)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
