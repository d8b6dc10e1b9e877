package utils

import (
	"fmt"
	"sync"
	"time"
)

// WorkerPool manages a pool of goroutines with an optional minimum spacing
// between job starts.
type WorkerPool struct {
	maxWorkers  int
	rateLimitMs int
	semaphore   chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastRequest time.Time

	errMu  sync.Mutex
	panics []error
}

// NewWorkerPool creates a WorkerPool with the given concurrency and rate limit.
// A concurrency below one is treated as one.
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		maxWorkers:  maxWorkers,
		rateLimitMs: rateLimitMs,
		semaphore:   make(chan struct{}, maxWorkers),
		lastRequest: time.Now(),
	}
}

// Submit enqueues a job for execution in the pool. It blocks while all
// workers are busy.
func (wp *WorkerPool) Submit(job func()) {
	wp.wg.Add(1)
	wp.semaphore <- struct{}{}

	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()
		defer func() {
			if r := recover(); r != nil {
				wp.errMu.Lock()
				wp.panics = append(wp.panics, fmt.Errorf("worker panic: %v", r))
				wp.errMu.Unlock()
			}
		}()

		wp.enforceRateLimit()
		job()
	}()
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Panics returns the recovered panics of jobs run so far.
func (wp *WorkerPool) Panics() []error {
	wp.errMu.Lock()
	defer wp.errMu.Unlock()
	out := make([]error, len(wp.panics))
	copy(out, wp.panics)
	return out
}

// Size returns the configured concurrency.
func (wp *WorkerPool) Size() int {
	return wp.maxWorkers
}

func (wp *WorkerPool) enforceRateLimit() {
	if wp.rateLimitMs <= 0 {
		return
	}
	wp.mu.Lock()
	defer wp.mu.Unlock()

	minInterval := time.Duration(wp.rateLimitMs) * time.Millisecond
	elapsed := time.Since(wp.lastRequest)
	if elapsed < minInterval {
		time.Sleep(minInterval - elapsed)
	}
	wp.lastRequest = time.Now()
}
