package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

type Pool struct {
	taskQueue chan Task
	wg        sync.WaitGroup

	// mu orders Submit against Shutdown's close of the queue: Submit holds
	// the read lock across the channel send, so no send can race the close.
	mu     sync.RWMutex
	closed bool
}

// NewPool starts size workers over a queue of queueSize pending tasks.
func NewPool(size, queueSize int) *Pool {
	wp := &Pool{
		taskQueue: make(chan Task, queueSize),
	}

	for range size {
		wp.wg.Add(1)
		go wp.startWorker()
	}

	return wp
}

func (wp *Pool) startWorker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		if err := task(context.Background()); err != nil {
			log.Error().Err(err).Msg("Worker task failed")
		}
	}
}

// Submit enqueues a task. Tasks are dropped, not blocked on, when the queue
// is full or the pool is shutting down.
func (wp *Pool) Submit(t Task) {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		log.Warn().Msg("Task submitted during shutdown, dropping")
		return
	}
	select {
	case wp.taskQueue <- t:
	default:
		log.Warn().Msg("Task queue full, dropping task")
	}
}

// Shutdown closes the queue and waits for workers to finish
func (wp *Pool) Shutdown() {
	wp.mu.Lock()
	if wp.closed {
		wp.mu.Unlock()
		return
	}
	wp.closed = true
	close(wp.taskQueue)
	wp.mu.Unlock()

	wp.wg.Wait()
}
