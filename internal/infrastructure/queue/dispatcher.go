package queue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
	"github.com/taskmanagement/task-system/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	persistTimeout = 5 * time.Second
)

// Dispatcher routes task audit events to a fixed set of workers sharded on
// the task id, so the events of one task are persisted in the order they
// were recorded.
type Dispatcher struct {
	workers []chan domain.TaskEvent
	store   ports.TaskEventRepository
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards stopped and the closing of workers against Record.
	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, store ports.TaskEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.TaskEvent, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.TaskEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop once Stop has drained
// their channels.
func (d *Dispatcher) Start() {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(i, ch)
	}
}

// Record hands an event to the worker responsible for its task. It never
// blocks: when the worker's channel is full, or the dispatcher has been
// stopped, the event is dropped and counted.
func (d *Dispatcher) Record(event domain.TaskEvent) {
	idx := d.shardIndex(event.TaskID)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.drop(event, idx, "task event dropped, dispatcher stopped")
		return
	}
	select {
	case d.workers[idx] <- event:
		metrics.TaskEventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		d.drop(event, idx, "task event dropped, worker queue full")
	}
}

func (d *Dispatcher) drop(event domain.TaskEvent, idx int, msg string) {
	metrics.TaskEventsDroppedTotal.Inc()
	d.log.Warn().
		Int64("task_id", event.TaskID).
		Str("action", string(event.Action)).
		Int("worker_id", idx).
		Msg(msg)
}

// Stop refuses further events, closes the worker channels and waits until
// queued events are persisted or ctx expires. Record may still be called
// afterwards; those events are dropped.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		for _, ch := range d.workers {
			close(ch)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID int64) int {
	n := int64(len(d.workers))
	idx := taskID % n
	if idx < 0 {
		idx += n
	}
	return int(idx)
}

func (d *Dispatcher) runWorker(id int, ch <-chan domain.TaskEvent) {
	defer d.wg.Done()
	depth := metrics.TaskEventsQueueDepth.WithLabelValues(strconv.Itoa(id))

	for event := range ch {
		depth.Dec()

		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := d.store.Insert(ctx, &event)
		cancel()
		if err != nil {
			d.log.Error().Err(err).
				Int64("task_id", event.TaskID).
				Str("action", string(event.Action)).
				Int("worker_id", id).
				Msg("task event persistence failed")
		}
	}
}
