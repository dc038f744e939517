package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
	"github.com/stockroom/inventory-api/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher writes equipment events to the event store in the background.
// Events are sharded by equipment id, so the events of one item are stored
// in the order they were published.
type Dispatcher struct {
	workers []chan domain.EquipmentEvent
	store   ports.EventStore
	log     zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, store ports.EventStore, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.EquipmentEvent, numWorkers),
		store:   store,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.EquipmentEvent, channelBuffer)
	}
	return d
}

// Start launches the workers. Store writes inherit ctx values but not its
// cancellation, so Close can drain pending events during shutdown.
func (d *Dispatcher) Start(ctx context.Context) {
	storeCtx := context.WithoutCancel(ctx)
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(storeCtx, i, ch)
	}
}

// Publish hands events to their workers without blocking. When a worker's
// buffer is full the event is dropped and counted.
func (d *Dispatcher) Publish(events ...domain.EquipmentEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	for _, e := range events {
		idx := d.shardIndex(e.EquipmentID)
		select {
		case d.workers[idx] <- e:
			metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
		default:
			metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
			d.log.Warn().
				Str("equipment_id", e.EquipmentID).
				Int("worker_id", idx).
				Msg("audit queue full, event dropped")
		}
	}
}

// Close stops accepting events and waits until queued events are stored.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps an equipment id deterministically to a worker index.
func (d *Dispatcher) shardIndex(equipmentID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(equipmentID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.EquipmentEvent) {
	defer d.wg.Done()
	depth := metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(id))
	for event := range ch {
		depth.Dec()
		if err := d.store.Insert(ctx, event); err != nil {
			metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
			d.log.Error().Err(err).
				Str("equipment_id", event.EquipmentID).
				Int("worker_id", id).
				Msg("audit event write failed")
			continue
		}
		metrics.AuditEventsTotal.WithLabelValues("stored").Inc()
	}
}
