package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/apperr"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/internal/service"
	"github.com/aarizah/AI-Enterprise-Knowledge-Assistant/pkg/log"
)

// SearchHandler 结构体定义了检索相关的处理器。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search 是处理相似度检索请求的 Gin 处理函数。
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("query")
	log.Infof("[SearchHandler] 收到检索请求, query: %s", query)

	if query == "" {
		log.Warnf("[SearchHandler] 检索请求失败: query 参数为空")
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}
	// top_k 缺省或非法时传 0，由检索服务回落到配置的默认值
	topK := 0
	if topKStr := c.Query("top_k"); topKStr != "" {
		if parsed, err := strconv.Atoi(topKStr); err == nil && parsed > 0 {
			topK = parsed
		}
	}

	userID := currentUserID(c)
	results, err := h.searchService.Retrieve(c.Request.Context(), query, userID, topK)
	if err != nil {
		log.Errorf("[SearchHandler] 检索服务返回错误, error: %v", err)
		switch {
		case errors.Is(err, apperr.ErrInvalidIdentity):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		}
		return
	}

	log.Infof("[SearchHandler] 检索成功, query: '%s', 返回 %d 条结果", query, len(results))
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// currentUserID 从 Gin 上下文取出认证中间件写入的用户 ID。
func currentUserID(c *gin.Context) uint {
	value, exists := c.Get("userID")
	if !exists {
		return 0
	}
	id, ok := value.(uint)
	if !ok {
		return 0
	}
	return id
}
