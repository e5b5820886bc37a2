package user

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Loop is a single sequential execution context. Functions posted to it run
// one at a time, in arrival order, on the goroutine that called Run.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	once     sync.Once
	inflight sync.WaitGroup
	log      *zap.Logger
}

// NewLoop creates a loop buffering up to size pending functions.
func NewLoop(size int, log *zap.Logger) *Loop {
	return &Loop{
		queue: make(chan func(), size),
		done:  make(chan struct{}),
		log:   log,
	}
}

// Post queues fn. It returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Go runs work on its own goroutine and posts done with its result.
// work is detached from ctx cancellation: mutations are never cancelled.
func (l *Loop) Go(ctx context.Context, work func(ctx context.Context) error, done func(err error)) {
	ctx = context.WithoutCancel(ctx)

	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()

		err := work(ctx)
		if !l.Post(func() { done(err) }) {
			l.log.Warn("completion dropped, loop stopped", zap.Error(err))
		}
	}()
}

// Run executes posted functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Wait blocks until all work started with Go has finished.
func (l *Loop) Wait() {
	l.inflight.Wait()
}
