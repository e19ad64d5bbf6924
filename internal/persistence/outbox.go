package persistence

import (
	"context"
	"errors"
	"sync"

	"bitsconnect/internal/observability"
	"bitsconnect/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

// Outbox queues collections touched by store changes and saves them through
// a Port. A collection whose save fails stays queued and is retried on the
// next flush, which the next change triggers.
type Outbox struct {
	port   Port
	store  *store.Store
	logger *observability.ComponentLogger

	mu    sync.Mutex
	dirty map[store.Collection]uint64

	signal      chan struct{}
	stop        chan struct{}
	wg          sync.WaitGroup
	startOnce   sync.Once
	closeOnce   sync.Once
	unsubscribe func()
}

// NewOutbox subscribes to st and starts queueing its changes.
func NewOutbox(port Port, st *store.Store) *Outbox {
	o := &Outbox{
		port:   port,
		store:  st,
		logger: observability.NewComponentLogger("outbox"),
		dirty:  make(map[store.Collection]uint64),
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	o.unsubscribe = st.Subscribe(o.onChange)
	return o
}

func (o *Outbox) onChange(c store.Change) {
	if c.Op == store.OpRestore {
		return
	}
	o.mu.Lock()
	for _, col := range c.Collections {
		o.dirty[col] = c.Version
	}
	o.mu.Unlock()

	select {
	case o.signal <- struct{}{}:
	default:
	}
}

// Pending lists the collections waiting to be saved.
func (o *Outbox) Pending() []store.Collection {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []store.Collection
	for _, col := range store.AllCollections {
		if _, ok := o.dirty[col]; ok {
			out = append(out, col)
		}
	}
	return out
}

// Flush saves every pending collection from the current snapshot.
func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := make(map[store.Collection]uint64, len(o.dirty))
	for col, v := range o.dirty {
		pending[col] = v
	}
	o.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "outbox.flush", attribute.Int("collections", len(pending)))

	snap := o.store.Snapshot()
	var errs []error
	for _, col := range store.AllCollections {
		version, ok := pending[col]
		if !ok {
			continue
		}
		if err := o.save(ctx, snap, col); err != nil {
			errs = append(errs, err)
			continue
		}
		o.mu.Lock()
		if o.dirty[col] == version {
			delete(o.dirty, col)
		}
		o.mu.Unlock()
	}

	err := errors.Join(errs...)
	span.Finish(err)
	return err
}

func (o *Outbox) save(ctx context.Context, snap store.Snapshot, col store.Collection) error {
	payload, err := Encode(snap, col)
	if err == nil {
		err = o.port.Save(ctx, string(col), payload)
	}
	if err != nil {
		observability.PersistenceSaves.WithLabelValues(string(col), observability.ResultError).Inc()
		observability.PersistenceFailures.WithLabelValues(string(col)).Inc()
		o.logger.LogError(ctx, err, "save", map[string]interface{}{"collection": string(col)})
		return err
	}
	observability.PersistenceSaves.WithLabelValues(string(col), observability.ResultOK).Inc()
	return nil
}

// Start runs a worker that flushes after every change signal until ctx is
// done or Close is called.
func (o *Outbox) Start(ctx context.Context) {
	o.startOnce.Do(func() {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-o.stop:
					return
				case <-o.signal:
					_ = o.Flush(ctx)
				}
			}
		}()
	})
}

// Close stops the worker, unsubscribes from the store and flushes once more.
func (o *Outbox) Close(ctx context.Context) error {
	var err error
	o.closeOnce.Do(func() {
		o.unsubscribe()
		close(o.stop)
		o.wg.Wait()
		err = o.Flush(ctx)
	})
	return err
}
