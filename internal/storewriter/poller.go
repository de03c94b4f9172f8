package storewriter

import (
	"context"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/vendorleads/lead-pipeline/pkg/logging"
)

const (
	defaultWorkerCount = 2
	maxWorkerCount     = 10
	receiveBatchSize   = 10
	defaultWaitSeconds = 5
)

// Poller drives the store-writer handler against SQS directly, for hosted
// deployments without a Lambda event source. Messages are deleted only after
// the handler returns without error; anything else stays in flight and is
// redelivered (and eventually dead-lettered) by the queue.
type Poller struct {
	queue       queueClient
	handler     *Handler
	logger      *logging.Logger
	workerCount int
	waitSeconds int

	wg sync.WaitGroup
}

// NewPoller creates a poller over the given queue.
func NewPoller(queue queueClient, handler *Handler, logger *logging.Logger) *Poller {
	if queue == nil {
		panic("storewriter: queue cannot be nil")
	}
	if handler == nil {
		panic("storewriter: handler cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Poller{
		queue:       queue,
		handler:     handler,
		logger:      logger,
		workerCount: defaultWorkerCount,
		waitSeconds: defaultWaitSeconds,
	}
}

// WithWorkerCount bounds concurrent batch processing, capped at the
// pipeline's configured maximum of 10 concurrent batches.
func (p *Poller) WithWorkerCount(n int) *Poller {
	if n > 0 {
		if n > maxWorkerCount {
			n = maxWorkerCount
		}
		p.workerCount = n
	}
	return p
}

// WithWaitSeconds sets the long-poll window.
func (p *Poller) WithWaitSeconds(n int) *Poller {
	if n > 0 {
		p.waitSeconds = n
	}
	return p
}

// Start launches the polling workers. It returns immediately; use Wait to
// block until they drain after ctx is canceled.
func (p *Poller) Start(ctx context.Context) {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			p.run(ctx, worker)
		}(i)
	}
}

// Wait blocks until all workers have stopped.
func (p *Poller) Wait() {
	p.wg.Wait()
}

func (p *Poller) run(ctx context.Context, worker int) {
	for {
		if ctx.Err() != nil {
			return
		}

		messages, err := p.queue.Receive(ctx, receiveBatchSize, p.waitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("queue receive failed", "worker", worker, "error", err)
			continue
		}
		if len(messages) == 0 {
			continue
		}

		event := events.SQSEvent{Records: make([]events.SQSMessage, 0, len(messages))}
		for _, msg := range messages {
			event.Records = append(event.Records, events.SQSMessage{
				MessageId:     msg.ID,
				Body:          msg.Body,
				ReceiptHandle: msg.ReceiptHandle,
			})
		}

		if err := p.handler.Handle(ctx, event); err != nil {
			// Leave the batch in flight; the queue redelivers it.
			p.logger.Error("batch processing failed, leaving messages for redelivery",
				"worker", worker,
				"batch_size", len(messages),
				"error", err,
			)
			continue
		}

		for _, msg := range messages {
			if err := p.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
				p.logger.Error("failed to delete processed message",
					"worker", worker,
					"message_id", msg.ID,
					"error", err,
				)
			}
		}
	}
}
