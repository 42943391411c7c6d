// Package api exposes the QA service over HTTP using gin.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"DocTalk/internal/models"
	"DocTalk/internal/qa_service/apperrors"
	"DocTalk/pkg/logger"
)

// QAService is the use-case surface the handlers call into.
type QAService interface {
	CreateRoom(ctx context.Context, userID int64, title string, pdfData []byte) (*models.Room, int, error)
	AskQuestion(ctx context.Context, roomID int64, question string) (string, error)
	ListRooms(ctx context.Context, userID int64) ([]models.Room, error)
	ListMessages(ctx context.Context, roomID int64) ([]models.ChatMessage, error)
	DeleteRoom(ctx context.Context, roomID int64) error
}

// HealthFunc pings the backing stores; a nil error means all are reachable.
type HealthFunc func(ctx context.Context) error

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service QAService
	health  HealthFunc
	log     logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s QAService, health HealthFunc, log logger.Logger) *Handler {
	return &Handler{service: s, health: health, log: log}
}

// statusFromError maps the service error taxonomy onto HTTP status codes.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.log.Error(err.Error())
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Welcome 返回欢迎信息。
func (h *Handler) Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the DocTalk QA service"})
}

// Healthz 检查所有后端存储的连通性。
func (h *Handler) Healthz(c *gin.Context) {
	if err := h.health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UpsertPDF 处理 PDF 上传请求：表单字段 title、user_id 和文件 file。
func (h *Handler) UpsertPDF(c *gin.Context) {
	title := c.PostForm("title")
	userIDStr := c.PostForm("user_id")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id: must be an integer"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}
	if !isPDFUpload(fileHeader.Header.Get("Content-Type"), fileHeader.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF uploads are accepted"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}

	room, chunkCount, err := h.service.CreateRoom(c.Request.Context(), userID, title, data)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "PDF processed successfully",
		"base_id":     room.ID,
		"chunk_count": chunkCount,
	})
}

// QueryPDFRequest 定义了提问请求的 JSON 结构。
type QueryPDFRequest struct {
	RoomID   int64  `json:"room_id" binding:"required"`
	Question string `json:"question" binding:"required"`
}

// QueryPDF 处理针对某个房间的提问。
func (h *Handler) QueryPDF(c *gin.Context) {
	var req QueryPDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.service.AskQuestion(c.Request.Context(), req.RoomID, req.Question)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":             answer,
		"source_document_id": req.RoomID,
	})
}

// ListRooms 返回指定用户的所有房间。
func (h *Handler) ListRooms(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id format"})
		return
	}

	rooms, err := h.service.ListRooms(c.Request.Context(), userID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// ListMessages 返回房间的完整对话记录。
func (h *Handler) ListMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id format"})
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), roomID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// DeleteRoom 级联删除房间及其派生数据。
func (h *Handler) DeleteRoom(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id format"})
		return
	}

	if err := h.service.DeleteRoom(c.Request.Context(), roomID); err != nil {
		h.abortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// isPDFUpload accepts either a PDF content type or a .pdf filename with a
// generic part content type, since many clients send multipart file parts as
// application/octet-stream.
func isPDFUpload(contentType, filename string) bool {
	if strings.EqualFold(contentType, "application/pdf") {
		return true
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return contentType == "" || strings.EqualFold(contentType, "application/octet-stream")
	}
	return false
}
