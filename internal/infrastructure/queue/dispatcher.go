package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodmove/logistics-api/internal/api/metrics"
	"github.com/goodmove/logistics-api/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// WebhookHandler applies one verified webhook event.
type WebhookHandler interface {
	HandleWebhookEvent(ctx context.Context, event ports.WebhookEvent) error
}

type job struct {
	event ports.WebhookEvent
	done  chan error
}

// Dispatcher routes webhook events to a fixed set of workers using consistent
// hashing on the customer id, guaranteeing per-customer event ordering.
type Dispatcher struct {
	workers []chan job
	handler WebhookHandler
	log     zerolog.Logger
	stopped chan struct{}
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, handler WebhookHandler, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan job, numWorkers),
		handler: handler,
		log:     log,
		stopped: make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan job, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
	go func() {
		<-ctx.Done()
		close(d.stopped)
	}()
}

// Submit hands the event to the worker owning its customer and waits for the
// outcome, so the caller can report failures back to the processor. Processing
// continues under the dispatcher's context even if ctx ends first.
func (d *Dispatcher) Submit(ctx context.Context, event ports.WebhookEvent) error {
	idx := d.shardIndex(event.CustomerID)
	j := job{event: event, done: make(chan error, 1)}

	select {
	case d.workers[idx] <- j:
		metrics.WebhookQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return context.Canceled
	}

	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stopped:
		return context.Canceled
	}
}

// shardIndex maps a customer id deterministically to a worker index.
func (d *Dispatcher) shardIndex(customerID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(customerID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan job) {
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-ch:
			metrics.WebhookQueueDepth.WithLabelValues(label).Set(float64(len(ch)))

			start := time.Now()
			err := d.handler.HandleWebhookEvent(ctx, j.event)
			metrics.WebhookProcessingDuration.WithLabelValues(string(j.event.Kind)).Observe(time.Since(start).Seconds())

			if err != nil {
				d.log.Error().Err(err).
					Str("event_id", j.event.ID).
					Str("customer_id", j.event.CustomerID).
					Int("worker_id", id).
					Msg("webhook event processing failed")
			}
			j.done <- err
		}
	}
}
