package activity

import (
	"context"
	"sync"
	"time"

	"github.com/emlakhub/emlakhub-backend/pkg/config"
	"github.com/emlakhub/emlakhub-backend/pkg/logger"
)

// Emitter accepts activity entries without blocking the caller. Failures are
// logged, never returned.
type Emitter interface {
	Emit(ctx context.Context, entry Entry)
}

type entryRecorder interface {
	Record(ctx context.Context, entry Entry) error
}

type emitterMetrics interface {
	IncActivityDropped()
	IncActivityFailed()
}

type job struct {
	ctx   context.Context
	entry Entry
}

// AsyncEmitter records entries on a bounded queue drained by worker goroutines.
type AsyncEmitter struct {
	recorder     entryRecorder
	logg         *logger.Logger
	metrics      emitterMetrics
	writeTimeout time.Duration
	workers      int

	mu     sync.RWMutex
	queue  chan job
	closed bool
	wg     sync.WaitGroup
	start  sync.Once
}

func NewAsyncEmitter(recorder entryRecorder, cfg config.ActivityConfig, logg *logger.Logger, metrics emitterMetrics) *AsyncEmitter {
	size := cfg.QueueSize
	if size <= 0 {
		size = 256
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AsyncEmitter{
		recorder:     recorder,
		logg:         logg,
		metrics:      metrics,
		writeTimeout: timeout,
		workers:      workers,
		queue:        make(chan job, size),
	}
}

// Start launches the workers. Calling it more than once is a no-op.
func (e *AsyncEmitter) Start() {
	e.start.Do(func() {
		for i := 0; i < e.workers; i++ {
			e.wg.Add(1)
			go e.run()
		}
	})
}

// Emit enqueues entry. A full queue or a closed emitter drops the entry.
func (e *AsyncEmitter) Emit(ctx context.Context, entry Entry) {
	if ctx == nil {
		ctx = context.Background()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		e.warn(ctx, entry, "activity emitter closed; entry dropped")
		return
	}
	select {
	case e.queue <- job{ctx: context.WithoutCancel(ctx), entry: entry}:
	default:
		e.warn(ctx, entry, "activity queue full; entry dropped")
		if e.metrics != nil {
			e.metrics.IncActivityDropped()
		}
	}
}

// Shutdown stops accepting entries and waits for queued ones to be written.
func (e *AsyncEmitter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	// Workers that were never started still need the queue drained.
	e.Start()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *AsyncEmitter) run() {
	defer e.wg.Done()
	for j := range e.queue {
		e.write(j)
	}
}

func (e *AsyncEmitter) write(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, e.writeTimeout)
	defer cancel()
	if err := e.recorder.Record(ctx, j.entry); err != nil {
		if e.metrics != nil {
			e.metrics.IncActivityFailed()
		}
		if e.logg != nil {
			logCtx := e.logg.WithField(ctx, "activity_kind", string(j.entry.Kind))
			e.logg.Error(logCtx, "failed to record activity", err)
		}
	}
}

func (e *AsyncEmitter) warn(ctx context.Context, entry Entry, msg string) {
	if e.logg == nil {
		return
	}
	e.logg.Warn(e.logg.WithField(ctx, "activity_kind", string(entry.Kind)), msg)
}

// SyncEmitter records entries inline and swallows failures. Used by tools and
// tests that need the row present when Emit returns.
type SyncEmitter struct {
	Recorder entryRecorder
	Logger   *logger.Logger
}

func (s SyncEmitter) Emit(ctx context.Context, entry Entry) {
	if s.Recorder == nil {
		return
	}
	if err := s.Recorder.Record(context.WithoutCancel(ctx), entry); err != nil && s.Logger != nil {
		s.Logger.Error(ctx, "failed to record activity", err)
	}
}

// NopEmitter discards every entry.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Entry) {}
