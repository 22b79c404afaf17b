// Package dataflow chains channel-connected stages with per-stage worker
// pools and retry.
package dataflow

import (
	"context"
	"sync"
	"time"
)

// From emits items in order and closes the channel when done or when ctx ends.
func From(ctx context.Context, items ...interface{}) <-chan interface{} {
	out := make(chan interface{})
	go func() {
		defer close(out)
		for _, item := range items {
			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Map applies fn to every item of in. With more than one worker the output
// order is not preserved. Items that still fail after the configured retries
// go to the error handler and are otherwise dropped.
func Map(ctx context.Context, in <-chan interface{}, fn func(interface{}) (interface{}, error), opts ...Option) <-chan interface{} {
	cfg := applyOptions(opts)
	out := make(chan interface{}, cfg.bufferSize)
	stageCtx, stop := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go func() {
			defer wg.Done()
			for {
				var item interface{}
				var ok bool
				select {
				case item, ok = <-in:
					if !ok {
						return
					}
				case <-stageCtx.Done():
					return
				}

				res, err := withRetry(stageCtx, cfg, func() (interface{}, error) { return fn(item) })
				if err != nil {
					if cfg.errorHandler != nil && !cfg.errorHandler(err) {
						stop()
						return
					}
					continue
				}
				select {
				case out <- res:
				case <-stageCtx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		stop()
		close(out)
	}()
	return out
}

// ForEach runs fn for every item of in and returns the first error fn
// returns, or ctx.Err() if ctx ends first.
func ForEach(ctx context.Context, in <-chan interface{}, fn func(interface{}) error, opts ...Option) error {
	cfg := applyOptions(opts)

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	stageCtx, stop := context.WithCancel(ctx)
	defer stop()

	wg.Add(cfg.workers)
	for i := 0; i < cfg.workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case item, ok := <-in:
					if !ok {
						return
					}
					if _, err := withRetry(stageCtx, cfg, func() (interface{}, error) { return nil, fn(item) }); err != nil {
						once.Do(func() { firstErr = err })
						stop()
						return
					}
				case <-stageCtx.Done():
					return
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func withRetry(ctx context.Context, cfg *config, fn func() (interface{}, error)) (interface{}, error) {
	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		if attempt > 0 && cfg.backoff != nil {
			t := time.NewTimer(cfg.backoff(attempt))
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			}
		}
		res, err := fn()
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
