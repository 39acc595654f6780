// workpool.go - worker pool abstraction
//
// (c) 2022- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.
//
// Workers are per-thread go-routines that accept work submitted via
// a channel and invoke a caller-defined "work" function. The
// Parallel Search Driver uses this directly: Work is a walker entry,
// and fp runs the DirEntry filter, the predicate and the search
// worker for that one entry.
//
//	pool := NewWorkPool[*walk.Entry](args.Threads, func(tid int, e *walk.Entry) error {
//		.. process one walker entry on worker tid
//		return nil
//	})
//
//	// feed it from the walker in a separate go-routine
//	go func() {
//		for e := range walkerEntries {
//			pool.Submit(e)
//		}
//		pool.Close()
//	}()
//
//	err := pool.Wait()
//
// Wait() harvests the errors and closes all the worker goroutines.
// Thus, the pool cannot be used to submit new work after Wait() is
// called.

package rgx

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

type WorkPool[Work any] struct {
	stopped atomic.Bool
	wg      sync.WaitGroup
	ch      chan Work

	ech  chan error
	ewg  sync.WaitGroup
	errs []error
}

// NewWorkPool creates a worker pool that invokes caller provided worker 'fp'.
// Each worker will process one unit of "work" submitted via Submit().
func NewWorkPool[Work any](nworkers int, fp func(i int, w Work) error) *WorkPool[Work] {
	if nworkers <= 0 {
		nworkers = runtime.NumCPU()
	}

	wp := &WorkPool[Work]{
		ch:   make(chan Work, nworkers),
		ech:  make(chan error, 1),
		errs: make([]error, 0, 1),
	}

	wp.stopped.Store(false)
	wp.wg.Add(nworkers)
	for i := 0; i < nworkers; i++ {
		go func(i int, fp func(i int, w Work) error) {
			defer func() {
				if e := recover(); e != nil {
					if err := e.(error); err != nil {
						wp.ech <- fmt.Errorf("workpool: panic: %w", err)
					}
				}
			}()

			for w := range wp.ch {
				err := fp(i, w)
				if err != nil {
					wp.ech <- err
				}
			}
			wp.wg.Done()
		}(i, fp)
	}

	// harvest errors
	wp.ewg.Add(1)
	go func(ech chan error) {
		for e := range wp.ech {
			wp.errs = append(wp.errs, e)
		}
		wp.ewg.Done()
	}(wp.ech)

	return wp
}

// Wait waits for all workers to end; Close must have been called
// first, or the workers never see the end of the work channel.
// Returns any errors from the workers.
// It is an error to call this multiple times
func (wp *WorkPool[Work]) Wait() error {
	wp.wg.Wait()
	close(wp.ech)

	// wait for error harvestor to complete
	wp.ewg.Wait()
	if len(wp.errs) > 0 {
		return errors.Join(wp.errs...)
	}
	return nil
}

// Close the work submission to workers and signal
// to them that there's no more work forthcoming.
func (wp *WorkPool[Work]) Close() {
	if wp.stopped.Swap(true) {
		panic("worker already closed")
	}
	close(wp.ch)
}

// Submit submits one unit of work to the worker
// WorkPool must be active.
func (wp *WorkPool[Work]) Submit(w Work) {
	if wp.stopped.Load() {
		panic("worker stopped")
	}
	wp.ch <- w
}

// Submit an error to the pool - if the user provided
// worker does things asynchronously.
func (wp *WorkPool[Work]) Err(err error) {
	if !wp.stopped.Load() {
		wp.ech <- err
	}
}
