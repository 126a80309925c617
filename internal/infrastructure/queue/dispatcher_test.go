package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/pkg/metrics"
)

type memoryEventStore struct {
	mu      sync.Mutex
	events  []domain.TaskEvent
	failFor int64
	block   chan struct{}
}

func (s *memoryEventStore) Insert(_ context.Context, e *domain.TaskEvent) error {
	if s.block != nil {
		<-s.block
	}
	if e.TaskID == s.failFor {
		return errors.New("insert failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return nil
}

func (s *memoryEventStore) ListByTask(_ context.Context, taskID int64) ([]*domain.TaskEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.TaskEvent
	for i := range s.events {
		if s.events[i].TaskID == taskID {
			e := s.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

func TestDispatcher_PreservesPerTaskOrder(t *testing.T) {
	store := &memoryEventStore{failFor: -1}
	d := NewDispatcher(3, store, zerolog.Nop())
	d.Start()

	actions := []domain.TaskAction{
		domain.ActionCreated,
		domain.ActionExecutorAssigned,
		domain.ActionStatusChanged,
		domain.ActionPriorityChanged,
	}
	for taskID := int64(1); taskID <= 5; taskID++ {
		for _, a := range actions {
			d.Record(domain.TaskEvent{TaskID: taskID, Action: a})
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))

	for taskID := int64(1); taskID <= 5; taskID++ {
		events, err := store.ListByTask(context.Background(), taskID)
		require.NoError(t, err)
		require.Len(t, events, len(actions))
		for i, a := range actions {
			assert.Equal(t, a, events[i].Action)
		}
	}
}

func TestDispatcher_FailedInsertDoesNotStopWorker(t *testing.T) {
	store := &memoryEventStore{failFor: 2}
	d := NewDispatcher(1, store, zerolog.Nop())
	d.Start()

	d.Record(domain.TaskEvent{TaskID: 2, Action: domain.ActionCreated})
	d.Record(domain.TaskEvent{TaskID: 3, Action: domain.ActionCreated})

	require.NoError(t, d.Stop(context.Background()))
	events, _ := store.ListByTask(context.Background(), 3)
	assert.Len(t, events, 1)
}

func TestDispatcher_RecordNeverBlocks(t *testing.T) {
	store := &memoryEventStore{failFor: -1, block: make(chan struct{})}
	d := NewDispatcher(1, store, zerolog.Nop())
	d.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Record(domain.TaskEvent{TaskID: 1, Action: domain.ActionUpdated})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full worker queue")
	}

	close(store.block)
	require.NoError(t, d.Stop(context.Background()))
}

func droppedEvents(t *testing.T) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.TaskEventsDroppedTotal.Write(&m))
	return m.GetCounter().GetValue()
}

func TestDispatcher_RecordAfterStopDropsEvent(t *testing.T) {
	store := &memoryEventStore{failFor: -1}
	d := NewDispatcher(1, store, zerolog.Nop())
	d.Start()
	require.NoError(t, d.Stop(context.Background()))

	dropped := droppedEvents(t)
	assert.NotPanics(t, func() {
		d.Record(domain.TaskEvent{TaskID: 1, Action: domain.ActionStatusChanged})
	})
	assert.Equal(t, dropped+1, droppedEvents(t))

	events, _ := store.ListByTask(context.Background(), 1)
	assert.Empty(t, events)
	require.NoError(t, d.Stop(context.Background()), "a second Stop is a no-op")
}

func TestDispatcher_RecordDuringStop(t *testing.T) {
	store := &memoryEventStore{failFor: -1}
	d := NewDispatcher(2, store, zerolog.Nop())
	d.Start()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				d.Record(domain.TaskEvent{TaskID: int64(g), Action: domain.ActionUpdated})
			}
		}(g)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Stop(ctx))
	wg.Wait()
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(4, &memoryEventStore{}, zerolog.Nop())
	for _, id := range []int64{0, 1, 7, 1 << 40, -3} {
		idx := d.shardIndex(id)
		assert.Equal(t, idx, d.shardIndex(id))
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 4)
	}
}
