package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// JobFunc adapts a function to the Job interface
type JobFunc func(ctx context.Context) Result

// Execute calls f
func (f JobFunc) Execute(ctx context.Context) Result {
	return f(ctx)
}

// PanicError is returned in place of a result when a job panics
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job panicked: %v", e.Value)
}

// failedResult stands in for a job that produced no result
type failedResult struct {
	err error
}

func (r *failedResult) GetError() error {
	return r.err
}

// Pool runs jobs on a fixed number of workers
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

type indexedJob struct {
	index int
	job   Job
}

// Run executes every job and returns their results in submission order.
// A panicking job yields a Result whose GetError is a *PanicError; the
// remaining jobs are unaffected.
func (p *Pool) Run(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	queue := make(chan indexedJob)
	var wg sync.WaitGroup

	workers := p.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ij := range queue {
				// Each index is written by exactly one worker
				results[ij.index] = execute(ctx, ij.job)
			}
		}()
	}

	for i, job := range jobs {
		queue <- indexedJob{index: i, job: job}
	}
	close(queue)
	wg.Wait()

	return results
}

// execute runs job, converting a panic or nil result into a failed Result
func execute(ctx context.Context, job Job) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &failedResult{err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	result = job.Execute(ctx)
	if result == nil {
		result = &failedResult{err: fmt.Errorf("job returned no result")}
	}
	return result
}
