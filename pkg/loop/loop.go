package loop

import (
	"context"
	"fmt"
	"time"
)

type Next struct {
	// if not nil, breaks with error
	err error

	// if quit == true and err == nil, breaks without error
	quit bool

	// otherwise, continue loop with interval.
	interval time.Duration
}

func (n Next) String() string {
	if n.err != nil {
		return fmt.Sprintf("[break] with error: %v", n.err)
	}
	if n.quit {
		return "[break] without error"
	}
	return fmt.Sprintf("[continue] interval: %s", n.interval)
}

// continue loop after interval.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// break loop. Pass nil to break without error.
func Break(err error) Next {
	return Next{quit: true, err: err}
}

type Task[T any] func(context.Context, T) (T, Next)

// Start task in loop.
//
// The task is called with the value it returned last time (init for the first call),
// and decides what to do next: Continue(interval) or Break(err).
// Zero value (Next{}) equals Continue(0).
//
// Polling a status every 2 seconds until it settles looks like:
//
//	loop.Start(ctx, Status(""), func(ctx context.Context, _ Status) (Status, loop.Next) {
//		s, err := fetch(ctx)
//		if err != nil {
//			return "", loop.Continue(2 * time.Second)
//		}
//		if s.Terminal() {
//			return s, loop.Break(nil)
//		}
//		return s, loop.Continue(2 * time.Second)
//	})
//
// # Args
//
// - ctx : When this context get be Done, loop will be break with ctx.Err().
// Cancellation wins over a pending interval.
//
// - init : your task will be called as task(ctx, init) at the first time.
//
// - task : task receiving (context, last value), then return (new value, Continue() or Break()).
//
// - options: options for each iteration.
//
// # Returns
//
// - T: T task returns at last. This is returned whether or not err is nil.
//
// - error: error in Break(error), or ctx.Err() when the context is done.
func Start[T any](ctx context.Context, init T, task Task[T], options ...LoopOption) (T, error) {
	select {
	case <-ctx.Done():
		return init, ctx.Err()
	default:
	}

	value := init
	for {
		lc := &loopConfig{ctx: ctx}
		for _, opt := range options {
			lc = opt(lc)
		}

		v, n := func() (T, Next) {
			if lc.deferred != nil {
				defer lc.deferred()
			}
			return task(lc.ctx, value)
		}()

		if n.err != nil {
			return v, n.err
		} else if n.quit {
			return v, nil
		}
		value = v

		timer := time.NewTimer(n.interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}

type loopConfig struct {
	ctx      context.Context
	deferred func()
}

type LoopOption func(*loopConfig) *loopConfig

// set timeout per iteration.
//
// this timeout is set on context.Context passed to task.
func WithTimeout(d time.Duration) LoopOption {
	return func(lc *loopConfig) *loopConfig {
		ctx, cancel := context.WithTimeout(lc.ctx, d)
		return &loopConfig{
			ctx: ctx,
			deferred: func() {
				if lc.deferred != nil {
					defer lc.deferred()
				}
				cancel()
			},
		}
	}
}
