package filehasher

import "fmt"

// WorkerFunc transforms one job into one result. A non-nil error tears the
// stage's pipeline down and is re-raised by Wait.
type WorkerFunc[J, R any] func(J) (R, error)

// SinkFunc consumes one job at a terminal stage.
type SinkFunc[J any] func(J) error

// Pool is a typed processing stage: N workers, each looping over the input
// channel, applying a worker function and pushing results downstream.
//
// The worker-function factory passed to the constructors is invoked once per
// worker, so per-worker state (such as a cloned hasher) is confined to a
// single goroutine for the pool's lifetime.
//
// Stages compose into pipelines by chaining: a chained pool adopts the
// upstream pool's output channel as its input. Both stages hold the shared
// channel; close is idempotent, so teardown from either side is safe.
type Pool[J, R any] struct {
	group  Group
	input  *Chan[J]
	output *Chan[R]
}

// NewPool creates a source stage with fresh input and output channels of
// capacity queue and starts its workers.
func NewPool[J, R any](workers, queue int, newWorker func() WorkerFunc[J, R]) *Pool[J, R] {
	p := &Pool[J, R]{
		input:  NewChan[J](queue),
		output: NewChan[R](queue),
	}
	p.run(workers, newWorker)
	return p
}

// NewChained creates a stage consuming the upstream pool's output channel.
// The job type is checked against the upstream result type at compile time.
func NewChained[U, J, R any](upstream *Pool[U, J], workers, queue int, newWorker func() WorkerFunc[J, R]) *Pool[J, R] {
	p := &Pool[J, R]{
		input:  upstream.output,
		output: NewChan[R](queue),
	}
	p.run(workers, newWorker)
	return p
}

func (p *Pool[J, R]) run(workers int, newWorker func() WorkerFunc[J, R]) {
	for i := 0; i < workers; i++ {
		fn := newWorker()
		p.group.Launch(func() error { return p.loop(fn) })
	}
}

// loop is the per-worker drain cycle. A nil return means a clean exit:
// either the input was closed and drained, or the downstream rejected a push
// because it has already been closed.
func (p *Pool[J, R]) loop(fn WorkerFunc[J, R]) error {
	for {
		j, ok := p.input.Pop()
		if !ok {
			return nil
		}
		r, err := invoke(fn, j)
		if err != nil {
			p.input.Close()
			p.output.Close()
			return err
		}
		if !p.output.Push(r) {
			// downstream finished; close the reader-side view so upstream
			// pushers observe the teardown instead of blocking
			p.input.Close()
			return nil
		}
	}
}

// Input returns the channel jobs are pushed into.
func (p *Pool[J, R]) Input() *Chan[J] { return p.input }

// Output returns the channel results are emitted on.
func (p *Pool[J, R]) Output() *Chan[R] { return p.output }

// Wait blocks until every worker has exited, re-raises the first worker
// failure, and closes the output channel so the downstream stage drains.
func (p *Pool[J, R]) Wait() error {
	err := p.group.Join()
	p.output.Close()
	return err
}

// Close tears the stage down unconditionally: both channels are closed and
// all workers are awaited with failures discarded. Idempotent; meant for
// deferred cleanup where Wait already reported the interesting error.
func (p *Pool[J, R]) Close() {
	p.input.Close()
	p.output.Close()
	p.group.Wait()
}

// Sink is the terminal stage of a pipeline: its workers forward each popped
// job to a SinkFunc and produce nothing. In place of an output channel it
// carries a terminator, which is closed when the sink finishes or fails;
// the producer polls it to stop feeding a torn-down pipeline.
type Sink[J any] struct {
	group Group
	input *Chan[J]
	term  *Chan[struct{}]
}

// NewSink creates a terminal stage consuming the upstream pool's output
// channel and starts its workers. The pipeline's result order is whatever
// order the upstream emits; use a single worker when the sink callback is
// stateful.
func NewSink[U, J any](upstream *Pool[U, J], workers, queue int, newWorker func() SinkFunc[J]) *Sink[J] {
	s := &Sink[J]{
		input: upstream.output,
		term:  NewChan[struct{}](queue),
	}
	for i := 0; i < workers; i++ {
		fn := newWorker()
		s.group.Launch(func() error { return s.loop(fn) })
	}
	return s
}

func (s *Sink[J]) loop(fn SinkFunc[J]) error {
	for {
		j, ok := s.input.Pop()
		if !ok {
			return nil
		}
		if err := invokeSink(fn, j); err != nil {
			s.input.Close()
			s.term.Close()
			return err
		}
		if s.term.IsClosed() {
			s.input.Close()
			return nil
		}
	}
}

// Input returns the channel the sink consumes.
func (s *Sink[J]) Input() *Chan[J] { return s.input }

// Terminator returns the last channel of the pipeline. Its closure tells the
// producer that no further input will be consumed.
func (s *Sink[J]) Terminator() *Chan[struct{}] { return s.term }

// Wait blocks until every sink worker has exited, re-raises the first
// failure, and closes the terminator.
func (s *Sink[J]) Wait() error {
	err := s.group.Join()
	s.term.Close()
	return err
}

// Close tears the sink down unconditionally and awaits its workers,
// discarding failures.
func (s *Sink[J]) Close() {
	s.input.Close()
	s.term.Close()
	s.group.Wait()
}

// invoke calls fn with panic containment so a panicking worker function
// still closes its stage's channels via the error path.
func invoke[J, R any](fn WorkerFunc[J, R], j J) (r R, err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanicked, ePanic)
		}
	}()
	return fn(j)
}

func invokeSink[J any](fn SinkFunc[J], j J) (err error) {
	defer func() {
		if ePanic := recover(); ePanic != nil {
			err = fmt.Errorf("%w: %v", ErrWorkerPanicked, ePanic)
		}
	}()
	return fn(j)
}
