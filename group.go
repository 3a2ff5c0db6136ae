package filehasher

import (
	"fmt"
	"sync"
)

// Group launches a set of independent goroutines and records each one's
// completion status: the returned error, or a recovered panic converted to
// an error wrapping ErrWorkerPanicked.
//
// Wait discards the statuses and is meant for teardown paths where raising
// would mask an earlier error. Join re-raises the first recorded failure in
// launch order and is used on the success path.
//
// A Group is not safe for concurrent mutation: one goroutine launches into
// it and one goroutine joins or waits.
type Group struct {
	wg    sync.WaitGroup
	cells []*groupCell
}

// groupCell holds one launched task's completion status. Each goroutine
// writes only its own cell before wg.Done, so Join reads race-free after
// wg.Wait.
type groupCell struct {
	err error
}

// Launch runs task in a fresh goroutine and records a handle to its
// completion status.
func (g *Group) Launch(task func() error) {
	cell := &groupCell{}
	g.cells = append(g.cells, cell)
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		cell.err = protect(task)
	}()
}

// Wait blocks until every launched task has completed, discarding failures.
func (g *Group) Wait() { g.wg.Wait() }

// Join blocks until every launched task has completed, then returns the
// first recorded failure in launch order, or nil.
func (g *Group) Join() error {
	g.wg.Wait()
	for _, cell := range g.cells {
		if cell.err != nil {
			return cell.err
		}
	}
	return nil
}

// protect invokes task, converting a panic into an error so a failing worker
// cannot take the process down.
func protect(task func() error) (err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanicked, ePanic)
		}
	}()
	return task()
}
