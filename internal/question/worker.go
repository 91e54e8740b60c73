package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Task is a fire-and-forget unit of bank bookkeeping. Its error is logged and
// discarded.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Bookkeeper accepts tasks without blocking the caller.
type Bookkeeper interface {
	Submit(task Task)
}

// BookkeepingWorker drains bank writes (saves, serve counters) off the request
// path. Each task runs under its own timeout, detached from the request context.
type BookkeepingWorker struct {
	queue     chan Task
	logger    zerolog.Logger
	timeout   time.Duration
	shutdownC chan struct{}
	doneC     chan struct{}
}

var _ Bookkeeper = (*BookkeepingWorker)(nil)

func NewBookkeepingWorker(queueSize int, logger zerolog.Logger, timeout time.Duration) *BookkeepingWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &BookkeepingWorker{
		queue:     make(chan Task, queueSize),
		logger:    logger.With().Str("component", "bank_bookkeeping").Logger(),
		timeout:   timeout,
		shutdownC: make(chan struct{}),
		doneC:     make(chan struct{}),
	}
}

// Submit enqueues task, dropping it when the queue is full.
func (w *BookkeepingWorker) Submit(task Task) {
	select {
	case w.queue <- task:
	default:
		droppedTasks.Inc()
		w.logger.Warn().Str("task", task.Name).Msg("bookkeeping queue full, task dropped")
	}
}

// Run processes tasks until Stop is called, then drains what is already queued.
func (w *BookkeepingWorker) Run() {
	defer close(w.doneC)
	for {
		select {
		case <-w.shutdownC:
			w.drain()
			w.logger.Info().Msg("bookkeeping worker stopping")
			return
		case task := <-w.queue:
			w.handle(task)
		}
	}
}

func (w *BookkeepingWorker) drain() {
	for {
		select {
		case task := <-w.queue:
			w.handle(task)
		default:
			return
		}
	}
}

func (w *BookkeepingWorker) handle(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := task.Run(ctx); err != nil {
		w.logger.Warn().Err(err).Str("task", task.Name).Msg("bookkeeping task failed")
	}
}

// Stop signals Run to finish and waits for queued tasks to drain.
func (w *BookkeepingWorker) Stop() {
	close(w.shutdownC)
	<-w.doneC
}
