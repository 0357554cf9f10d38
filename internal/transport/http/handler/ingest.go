package handler

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hierarag/internal/app"
	"hierarag/internal/model"
	"hierarag/internal/pkg/docextract"
	"hierarag/internal/transport/http/response"
)

const maxUploadSize = 20 << 20 // 20 MB

type Ingester interface {
	Ingest(ctx context.Context, input app.IngestInput) (*app.IngestResult, error)
}

type JobPublisher interface {
	Publish(ctx context.Context, job model.IngestJob) error
}

type IngestHandler struct {
	ingester  Ingester
	publisher JobPublisher
}

type IngestTextRequest struct {
	Filename string `json:"filename" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

type IngestResponse struct {
	Status      string `json:"status"`
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
	Message     string `json:"message"`
}

type AsyncIngestResponse struct {
	Status   string `json:"status"`
	JobID    string `json:"job_id"`
	Filename string `json:"filename"`
}

// NewIngestHandler builds the ingestion handler. publisher may be nil, in
// which case async ingestion answers 503.
func NewIngestHandler(ingester Ingester, publisher JobPublisher) *IngestHandler {
	return &IngestHandler{ingester: ingester, publisher: publisher}
}

// Upload ingests a multipart "file" field (.pdf, .md, .txt).
func (h *IngestHandler) Upload(c *gin.Context) {
	filename, text, ok := readUpload(c)
	if !ok {
		return
	}
	h.ingest(c, filename, text)
}

// IngestText ingests a JSON body carrying raw text or markdown.
func (h *IngestHandler) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	h.ingest(c, req.Filename, req.Content)
}

// Async queues an uploaded file for the ingest worker.
func (h *IngestHandler) Async(c *gin.Context) {
	if h.publisher == nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "async ingestion is not configured")
		return
	}
	filename, text, ok := readUpload(c)
	if !ok {
		return
	}

	job := model.IngestJob{
		ID:         uuid.NewString(),
		Filename:   filename,
		Content:    text,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := h.publisher.Publish(c.Request.Context(), job); err != nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "enqueue ingest job failed: "+err.Error())
		return
	}
	c.JSON(http.StatusAccepted, response.APIResponse{
		Code:    response.CodeOK,
		Message: "ok",
		Data:    AsyncIngestResponse{Status: "queued", JobID: job.ID, Filename: filename},
	})
}

func (h *IngestHandler) ingest(c *gin.Context, filename, text string) {
	result, err := h.ingester.Ingest(c.Request.Context(), app.IngestInput{Filename: filename, Content: text})
	if err != nil {
		writeError(c, err)
		return
	}
	message := "document ingested"
	if result.ChunksCount == 0 {
		message = "document produced no chunks"
	}
	response.OK(c, IngestResponse{
		Status:      "success",
		Filename:    result.Filename,
		ChunksCount: result.ChunksCount,
		Message:     message,
	})
}

func readUpload(c *gin.Context) (string, string, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return "", "", false
	}
	if file.Size > maxUploadSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 20MB)")
		return "", "", false
	}
	if !docextract.Supported(file.Filename) {
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedType, "only .pdf, .md and .txt files are allowed")
		return "", "", false
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return "", "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return "", "", false
	}
	text, err := docextract.Extract(file.Filename, data)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedType, "failed to extract text: "+err.Error())
		return "", "", false
	}
	if strings.TrimSpace(text) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file contains no extractable text")
		return "", "", false
	}
	return file.Filename, text, true
}
