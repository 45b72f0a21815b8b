package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kenshuhub/kenshuhub-backend/internal/http/response"
	"github.com/kenshuhub/kenshuhub-backend/internal/platform/ctxutil"
	"github.com/kenshuhub/kenshuhub-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat always answers 200; an upstream AI failure arrives as a payload with
// success=false so the client can render it inline.
func (ch *ChatHandler) Chat(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := ch.chatService.Chat(c.Request.Context(), rc, req.Message)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func (ch *ChatHandler) Suggestions(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	suggestions, err := ch.chatService.Suggestions(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"suggestions": suggestions})
}

func (ch *ChatHandler) History(c *gin.Context) {
	rc := ctxutil.GetRequestContext(c.Request.Context())
	history, err := ch.chatService.History(c.Request.Context(), rc)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": history})
}
