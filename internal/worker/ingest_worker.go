package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"hierarag/internal/app"
	"hierarag/internal/model"
	"hierarag/internal/platform/rabbitmq"
)

type Ingester interface {
	Ingest(ctx context.Context, input app.IngestInput) (*app.IngestResult, error)
}

// acknowledger is the part of amqp.Delivery the worker settles.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// IngestWorker consumes queued documents and ingests them one at a time.
type IngestWorker struct {
	conn      *amqp.Connection
	ingester  Ingester
	queueName string
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestWorker(conn *amqp.Connection, ingester Ingester, queueName string, logger *slog.Logger) *IngestWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestWorker{
		conn:      conn,
		ingester:  ingester,
		queueName: queueName,
		logger:    logger,
	}
}

func (w *IngestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}
	// One unacked job at a time; ingestion is embedding-bound.
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d, d.Body)
			}
		}
	}()

	return nil
}

// handle acks a processed job. Undecodable jobs and documents that fail
// ingestion are dropped; a cancelled context puts the job back.
func (w *IngestWorker) handle(ctx context.Context, d acknowledger, body []byte) {
	var job model.IngestJob
	if err := json.Unmarshal(body, &job); err != nil {
		w.logger.Error("worker decode ingest job failed", "error", err)
		_ = d.Nack(false, false)
		return
	}

	res, err := w.ingester.Ingest(ctx, app.IngestInput{Filename: job.Filename, Content: job.Content})
	if err != nil {
		requeue := errors.Is(err, context.Canceled)
		w.logger.Error("worker ingest failed", "job", job.ID, "filename", job.Filename, "requeue", requeue, "error", err)
		_ = d.Nack(false, requeue)
		return
	}

	w.logger.Info("worker ingested document", "job", job.ID, "filename", res.Filename, "chunks", res.ChunksCount)
	_ = d.Ack(false)
}

func (w *IngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
