// Package handler 包含所有 Gin HTTP 请求处理器。
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

// DocumentHandler 结构体定义了文档生命周期相关的处理器。
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// Upload 处理 multipart 批量上传请求。
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := currentUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}
	log.Infof("[DocumentHandler] 收到上传请求, userID: %d, 文件数: %d", userID, len(files))

	results, err := h.documentService.Upload(c.Request.Context(), userID, files)
	if err != nil {
		h.respondError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// indexRequest 定义了手动触发索引的请求体。
type indexRequest struct {
	DocumentIDs []uint `json:"document_ids" binding:"required"`
}

// Index 同步执行一批文档的摄取并返回逐文档结果。
func (h *DocumentHandler) Index(c *gin.Context) {
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.DocumentIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document_ids is required"})
		return
	}

	userID := currentUserID(c)
	log.Infof("[DocumentHandler] 收到索引请求, userID: %d, 文档数: %d", userID, len(req.DocumentIDs))

	results, err := h.documentService.Index(c.Request.Context(), userID, req.DocumentIDs)
	if err != nil {
		h.respondError(c, err, "index failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// List 返回当前用户的全部文档。
func (h *DocumentHandler) List(c *gin.Context) {
	userID := currentUserID(c)

	resp, err := h.documentService.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err, "list failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": resp, "message": "success"})
}

// Get 返回当前用户的单个文档详情。
func (h *DocumentHandler) Get(c *gin.Context) {
	userID := currentUserID(c)
	documentID, err := parseDocumentID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	doc, err := h.documentService.Get(c.Request.Context(), userID, documentID)
	if err != nil {
		h.respondError(c, err, "get failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": doc, "message": "success"})
}

// Delete 删除当前用户的单个文档及其全部向量。
func (h *DocumentHandler) Delete(c *gin.Context) {
	userID := currentUserID(c)
	documentID, err := parseDocumentID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), userID, documentID); err != nil {
		h.respondError(c, err, "delete failed")
		return
	}

	log.Infof("[DocumentHandler] 文档删除成功, userID: %d, documentID: %d", userID, documentID)
	c.JSON(http.StatusOK, gin.H{"code": 200, "message": "success"})
}

func (h *DocumentHandler) respondError(c *gin.Context, err error, fallback string) {
	log.Errorf("[DocumentHandler] 文档服务返回错误, error: %v", err)
	switch {
	case errors.Is(err, apperr.ErrInvalidIdentity):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid identity"})
	case errors.Is(err, apperr.ErrDocumentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

func parseDocumentID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
