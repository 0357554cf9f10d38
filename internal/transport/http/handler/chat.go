package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hierarag/internal/app"
	"hierarag/internal/transport/http/response"
)

type SimpleAnswerer interface {
	Answer(ctx context.Context, query string) (*app.SimpleAnswer, error)
}

type AgenticAnswerer interface {
	Answer(ctx context.Context, query string) (*app.AgenticAnswer, error)
}

type ChatHandler struct {
	simple  SimpleAnswerer
	agentic AgenticAnswerer
	timeout time.Duration
}

type ChatRequest struct {
	Query string `json:"query" binding:"required"`
}

// NewChatHandler wires both answer pipelines. timeout bounds a whole query;
// zero leaves it to the client.
func NewChatHandler(simple SimpleAnswerer, agentic AgenticAnswerer, timeout time.Duration) *ChatHandler {
	return &ChatHandler{simple: simple, agentic: agentic, timeout: timeout}
}

func (h *ChatHandler) Simple(c *gin.Context) {
	query, ok := bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := h.queryContext(c)
	defer cancel()

	result, err := h.simple.Answer(ctx, query)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) Agentic(c *gin.Context) {
	query, ok := bindQuery(c)
	if !ok {
		return
	}
	ctx, cancel := h.queryContext(c)
	defer cancel()

	result, err := h.agentic.Answer(ctx, query)
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) queryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func bindQuery(c *gin.Context) (string, bool) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return "", false
	}
	return req.Query, true
}
