package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/service"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// ChatHandler 结构体定义了问答相关的处理器。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// askRequest 定义了问答接口的请求体。
type askRequest struct {
	Query string `json:"query" binding:"required"`
}

// Ask 是处理知识库问答请求的 Gin 处理函数。
func (h *ChatHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	userID := currentUserID(c)
	log.Infof("[ChatHandler] 收到问答请求, userID: %d", userID)

	resp, err := h.chatService.Ask(c.Request.Context(), req.Query, userID)
	if err != nil {
		log.Errorf("[ChatHandler] 问答服务返回错误, error: %v", err)
		switch {
		case errors.Is(err, apperr.ErrInvalidIdentity):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
		case errors.Is(err, apperr.ErrLLMService):
			c.JSON(http.StatusBadGateway, gin.H{"error": "answer generation failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ask failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": resp, "message": "success"})
}
