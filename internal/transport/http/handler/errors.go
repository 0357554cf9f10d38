package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hierarag/internal/app"
	"hierarag/internal/pkg/docextract"
	"hierarag/internal/transport/http/response"
)

// writeError maps service errors to the response envelope. The cause is
// always included so clients never mistake a failure for an answer.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, docextract.ErrUnsupportedType), errors.Is(err, docextract.ErrInvalidEncoding):
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedType, err.Error())
	case errors.Is(err, app.ErrNotConverged):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeNotConverged, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		response.Error(c, http.StatusGatewayTimeout, response.CodeRetrievalFailed, err.Error())
	case errors.Is(err, app.ErrRetrieval):
		response.Error(c, http.StatusBadGateway, response.CodeRetrievalFailed, err.Error())
	case errors.Is(err, app.ErrIngestion):
		response.Error(c, http.StatusInternalServerError, response.CodeIngestionFailed, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, err.Error())
	}
}
