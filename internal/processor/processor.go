package processor

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"pixpress/internal/imagekit"
)

// SkipCancelled is the reason recorded for jobs that never started because
// the run's context was done.
const SkipCancelled = "cancelled"

type outcome struct {
	pos int
	res Result
}

// Run processes every job in batch and blocks until each has produced a
// Result. Batches of one job, or runs with Parallel unset, execute in order
// on the calling goroutine; everything else goes through a pool of worker
// goroutines. sink sees each Result exactly once, from one goroutine at a
// time. The returned slice is in submission order.
//
// A done ctx stops jobs from starting but never interrupts one in flight.
func Run(ctx context.Context, kit imagekit.Kit, batch Batch, opts RunOptions, sink Sink) ([]Result, Summary) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString(), Total: len(batch)}
	results := make([]Result, len(batch))
	if sink == nil {
		sink = SinkFunc(func(Result) {})
	}

	record := func(pos int, res Result) {
		results[pos] = res
		summary.add(res)
		sink.Emit(res)
	}

	if len(batch) <= 1 || !opts.Parallel {
		for i, job := range batch {
			record(i, runJob(ctx, kit, job))
		}
		summary.Elapsed = time.Since(start)
		return results, summary
	}

	tasks := make(chan int)
	outcomes := make(chan outcome)

	workers := WorkerCount(opts.Workers, len(batch))
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for pos := range tasks {
				outcomes <- outcome{pos: pos, res: runJob(ctx, kit, batch[pos])}
			}
		}()
	}

	go func() {
		defer close(tasks)
		for pos := range batch {
			tasks <- pos
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	if opts.Ordered {
		next := 0
		pending := make(map[int]Result)
		for o := range outcomes {
			pending[o.pos] = o.res
			for {
				res, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				record(next, res)
				next++
			}
		}
	} else {
		for o := range outcomes {
			record(o.pos, o.res)
		}
	}

	summary.Elapsed = time.Since(start)
	return results, summary
}

func runJob(ctx context.Context, kit imagekit.Kit, job Job) Result {
	if ctx != nil && ctx.Err() != nil {
		return Result{
			Index:     job.Index,
			Input:     job.Input,
			Output:    job.Output,
			InputName: filepath.Base(job.Input),
			Status:    StatusSkipped,
			Reason:    SkipCancelled,
		}
	}
	return Process(kit, job)
}

// WorkerCount is the pool size Run uses: one goroutine per CPU unless
// requested, never more than the number of jobs.
func WorkerCount(requested, jobs int) int {
	n := requested
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}
