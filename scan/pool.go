package scan

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// job is one unit of pool work together with its outcome.
type job[T, R any] struct {
	In  T
	Out R
	// Done is false when cancellation stopped the pool before the job ran.
	Done bool
}

// pool runs fn over a fixed set of inputs on a bounded number of
// goroutines. Every job writes only its own result slot.
type pool[T, R any] struct {
	workers int
	fn      func(ctx context.Context, in T) R
}

func newPool[T, R any](workers int, fn func(ctx context.Context, in T) R) *pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &pool[T, R]{workers: workers, fn: fn}
}

// run processes inputs and returns one job per input, in input order.
func (p *pool[T, R]) run(ctx context.Context, inputs []T) []job[T, R] {
	jobs := make([]job[T, R], len(inputs))
	queue := make(chan int, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers && w < len(inputs); w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			n := 0
			for {
				select {
				case <-ctx.Done():
					log.Debug().Int("worker", worker).Int("jobs", n).Msg("worker cancelled")
					return
				case idx, ok := <-queue:
					if !ok {
						return
					}
					jobs[idx] = job[T, R]{In: inputs[idx], Out: p.fn(ctx, inputs[idx]), Done: true}
					n++
				}
			}
		}(w)
	}

feed:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case queue <- i:
		}
	}
	close(queue)
	wg.Wait()
	return jobs
}
