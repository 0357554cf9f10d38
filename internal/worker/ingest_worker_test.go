package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hierarag/internal/app"
	"hierarag/internal/model"
)

type recordingAck struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (r *recordingAck) Ack(bool) error {
	r.acked = true
	return nil
}

func (r *recordingAck) Nack(_ bool, requeue bool) error {
	r.nacked = true
	r.requeued = requeue
	return nil
}

type fakeIngester struct {
	inputs []app.IngestInput
	err    error
}

func (f *fakeIngester) Ingest(_ context.Context, in app.IngestInput) (*app.IngestResult, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &app.IngestResult{Filename: in.Filename, ChunksCount: 2}, nil
}

func newTestWorker(ing Ingester) *IngestWorker {
	return NewIngestWorker(nil, ing, "q", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func jobBody(t *testing.T) []byte {
	body, err := json.Marshal(model.IngestJob{ID: "j1", Filename: "notes.md", Content: "# A\nbody"})
	require.NoError(t, err)
	return body
}

func TestHandleAcksIngestedJob(t *testing.T) {
	ing := &fakeIngester{}
	ack := &recordingAck{}
	newTestWorker(ing).handle(context.Background(), ack, jobBody(t))

	assert.True(t, ack.acked)
	assert.False(t, ack.nacked)
	require.Len(t, ing.inputs, 1)
	assert.Equal(t, app.IngestInput{Filename: "notes.md", Content: "# A\nbody"}, ing.inputs[0])
}

func TestHandleDropsMalformedJob(t *testing.T) {
	ing := &fakeIngester{}
	ack := &recordingAck{}
	newTestWorker(ing).handle(context.Background(), ack, []byte("{not json"))

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.Empty(t, ing.inputs)
}

func TestHandleDropsFailedIngestion(t *testing.T) {
	ack := &recordingAck{}
	ing := &fakeIngester{err: fmt.Errorf("%w: embed down", app.ErrIngestion)}
	newTestWorker(ing).handle(context.Background(), ack, jobBody(t))

	assert.True(t, ack.nacked)
	assert.False(t, ack.requeued)
	assert.False(t, ack.acked)
}

func TestHandleRequeuesOnShutdown(t *testing.T) {
	ack := &recordingAck{}
	ing := &fakeIngester{err: fmt.Errorf("%w: %w", app.ErrIngestion, context.Canceled)}
	newTestWorker(ing).handle(context.Background(), ack, jobBody(t))

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeued)
}

func TestCloseWithoutStart(t *testing.T) {
	w := newTestWorker(&fakeIngester{err: errors.New("unused")})
	w.Close()
}
