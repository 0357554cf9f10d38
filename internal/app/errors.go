package app

import (
	"errors"

	"hierarag/internal/agent"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrIngestion marks a document that could not be chunked or stored.
	ErrIngestion = errors.New("ingestion failed")
	// ErrRetrieval marks a failed search, tool call or generation call.
	ErrRetrieval    = errors.New("retrieval failed")
	ErrNotConverged = agent.ErrNotConverged
)
