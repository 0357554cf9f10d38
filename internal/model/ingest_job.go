package model

import "time"

// IngestJob is the queued form of a document waiting for ingestion.
type IngestJob struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Content    string    `json:"content"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
