package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"
)

var ErrPoolClosed = errors.New("worker pool is closed")

// Task is one isolated unit of work, typically a single render.
type Task[T any] func(ctx context.Context) (T, error)

type result[T any] struct {
	value T
	err   error
}

type job[T any] struct {
	ctx     context.Context
	task    Task[T]
	results chan result[T]
}

// Pool runs tasks on a fixed number of workers. A panicking task only
// fails its own job.
type Pool[T any] struct {
	poolSize int
	jobs     chan job[T]
	metrics  *Metrics
	wg       sync.WaitGroup
	once     sync.Once
	done     chan struct{}
}

func NewPool[T any](poolSize int, metrics *Metrics) (*Pool[T], error) {
	if poolSize < 1 {
		return nil, errors.New("pool size must be at least 1")
	}
	return &Pool[T]{
		poolSize: poolSize,
		jobs:     make(chan job[T]),
		metrics:  metrics,
		done:     make(chan struct{}),
	}, nil
}

func (p *Pool[T]) StartWorkers() {
	log.Printf("Starting render workers with pool size: %d", p.poolSize)

	for i := range p.poolSize {
		p.wg.Add(1)
		go p.worker(i)
	}
}

func (p *Pool[T]) worker(i int) {
	defer p.wg.Done()
	log.Printf("Worker %d started", i)
	for {
		select {
		case j := <-p.jobs:
			j.results <- p.run(j)
		case <-p.done:
			log.Printf("Worker %d finished", i)
			return
		}
	}
}

func (p *Pool[T]) run(j job[T]) (res result[T]) {
	if err := j.ctx.Err(); err != nil {
		p.metrics.observe(OutcomeCancelled, 0)
		return result[T]{err: err}
	}

	startTime := time.Now()
	p.metrics.start()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Render task panicked: %v\n%s", r, debug.Stack())
			res = result[T]{err: fmt.Errorf("render task panicked: %v", r)}
		}
		p.metrics.finish()
		p.metrics.observe(outcomeOf(res.err), time.Since(startTime))
	}()

	value, err := j.task(j.ctx)
	return result[T]{value: value, err: err}
}

// Submit queues task and waits for its result. If ctx ends first the
// caller gets ctx.Err() and the result, if any, is discarded.
func (p *Pool[T]) Submit(ctx context.Context, task Task[T]) (T, error) {
	var zero T
	j := job[T]{ctx: ctx, task: task, results: make(chan result[T], 1)}

	select {
	case p.jobs <- j:
	case <-ctx.Done():
		p.metrics.observe(OutcomeCancelled, 0)
		return zero, ctx.Err()
	case <-p.done:
		return zero, ErrPoolClosed
	}

	select {
	case res := <-j.results:
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Shutdown stops the workers once their current task is finished.
func (p *Pool[T]) Shutdown() {
	p.once.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}
