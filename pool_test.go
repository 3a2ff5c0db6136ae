package filehasher

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPool_TransformsJobs(t *testing.T) {
	p := NewPool[int, int](4, 128, func() WorkerFunc[int, int] {
		return func(j int) (int, error) { return j * j, nil }
	})

	for i := 0; i < 100; i++ {
		require.True(t, p.Input().Push(i))
	}
	p.Input().Close()
	require.NoError(t, p.Wait())

	seen := make(map[int]bool)
	for {
		v, ok := p.Output().Pop()
		if !ok {
			break
		}
		seen[v] = true
	}
	require.Len(t, seen, 100)
	for i := 0; i < 100; i++ {
		require.True(t, seen[i*i], "missing result for job %d", i)
	}
}

func TestPool_SingleWorkerPreservesOrder(t *testing.T) {
	p := NewPool[int, int](1, 128, func() WorkerFunc[int, int] {
		return func(j int) (int, error) { return j, nil }
	})

	for i := 0; i < 100; i++ {
		require.True(t, p.Input().Push(i))
	}
	p.Input().Close()
	require.NoError(t, p.Wait())

	for i := 0; i < 100; i++ {
		v, ok := p.Output().Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := p.Output().Pop()
	require.False(t, ok)
}

func TestPool_ChainedStagesTypeCheck(t *testing.T) {
	first := NewPool[int, int](2, 64, func() WorkerFunc[int, int] {
		return func(j int) (int, error) { return j * 2, nil }
	})
	second := NewChained(first, 2, 64, func() WorkerFunc[int, string] {
		return func(j int) (string, error) { return strconv.Itoa(j), nil }
	})

	for i := 0; i < 50; i++ {
		require.True(t, first.Input().Push(i))
	}
	first.Input().Close()
	require.NoError(t, first.Wait())
	require.NoError(t, second.Wait())

	seen := make(map[string]bool)
	for {
		v, ok := second.Output().Pop()
		if !ok {
			break
		}
		seen[v] = true
	}
	require.Len(t, seen, 50)
	for i := 0; i < 50; i++ {
		require.True(t, seen[strconv.Itoa(i*2)])
	}
}

func TestPool_WorkerFailureTearsPipelineDown(t *testing.T) {
	errHash := errors.New("hash failed")

	p := NewPool[int, int](2, 2, func() WorkerFunc[int, int] {
		return func(j int) (int, error) {
			if j == 3 {
				return 0, errHash
			}
			return j, nil
		}
	})

	// the producer keeps feeding until the failing worker closes the input
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			if !p.Input().Push(i) {
				return
			}
		}
	}()
	wg.Wait()

	p.Input().Close()
	require.ErrorIs(t, p.Wait(), errHash)
	require.True(t, p.Input().IsClosed())
	require.True(t, p.Output().IsClosed())

	// the pipeline is rejecting further work
	require.False(t, p.Input().Push(7))
}

func TestPool_WorkerPanicBecomesError(t *testing.T) {
	p := NewPool[int, int](1, 4, func() WorkerFunc[int, int] {
		return func(int) (int, error) { panic("worker exploded") }
	})

	require.True(t, p.Input().Push(1))
	p.Input().Close()

	err := p.Wait()
	require.ErrorIs(t, err, ErrWorkerPanicked)
	require.Contains(t, err.Error(), "worker exploded")
}

func TestPool_CloseJoinsWorkers(t *testing.T) {
	p := NewPool[int, int](4, 8, func() WorkerFunc[int, int] {
		return func(j int) (int, error) { return j, nil }
	})
	p.Close()
	// goleak in TestMain verifies no worker survived
	require.False(t, p.Input().Push(1))
}

func TestSink_ReceivesAllResults(t *testing.T) {
	p := NewPool[int, int](3, 64, func() WorkerFunc[int, int] {
		return func(j int) (int, error) { return j + 100, nil }
	})

	var mu sync.Mutex
	var got []int
	s := NewSink(p, 1, 64, func() SinkFunc[int] {
		return func(v int) error {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
			return nil
		}
	})

	for i := 0; i < 40; i++ {
		require.True(t, p.Input().Push(i))
	}
	p.Input().Close()
	require.NoError(t, p.Wait())
	require.NoError(t, s.Wait())
	require.Len(t, got, 40)
}

func TestSink_EarlyTerminatorCloseStopsCleanly(t *testing.T) {
	p := NewPool[int, int](2, 4, func() WorkerFunc[int, int] {
		return func(j int) (int, error) { return j, nil }
	})

	var count atomic.Int32
	var s *Sink[int]
	s = NewSink(p, 1, 4, func() SinkFunc[int] {
		return func(int) error {
			if count.Add(1) == 5 {
				s.Terminator().Close()
			}
			return nil
		}
	})

	input := p.Input()
	terminator := s.Terminator()
	for i := 0; i < 1000 && !terminator.IsClosed(); i++ {
		if !input.Push(i) {
			break
		}
	}

	input.Close()
	require.NoError(t, p.Wait())
	require.NoError(t, s.Wait())
	require.EqualValues(t, 5, count.Load())
}

func TestSink_FailurePropagatesOnWait(t *testing.T) {
	errWrite := errors.New("write failed")

	p := NewPool[int, int](2, 8, func() WorkerFunc[int, int] {
		return func(j int) (int, error) { return j, nil }
	})
	s := NewSink(p, 1, 8, func() SinkFunc[int] {
		return func(int) error { return errWrite }
	})

	for i := 0; i < 20; i++ {
		if !p.Input().Push(i) {
			break
		}
	}
	p.Input().Close()

	require.NoError(t, p.Wait())
	require.ErrorIs(t, s.Wait(), errWrite)
}
