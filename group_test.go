package filehasher

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGroup_JoinSucceeds(t *testing.T) {
	var g Group
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		g.Launch(func() error {
			ran.Add(1)
			return nil
		})
	}
	require.NoError(t, g.Join())
	require.Equal(t, int32(5), ran.Load())
}

func TestGroup_JoinReturnsFirstFailureInLaunchOrder(t *testing.T) {
	errFirst := errors.New("first")
	errSecond := errors.New("second")

	var g Group
	// the earlier-launched task fails later in wall-clock time; Join still
	// reports it, not the quicker failure
	g.Launch(func() error {
		time.Sleep(50 * time.Millisecond)
		return errFirst
	})
	g.Launch(func() error { return errSecond })

	require.ErrorIs(t, g.Join(), errFirst)
}

func TestGroup_JoinConvertsPanic(t *testing.T) {
	var g Group
	g.Launch(func() error { panic("boom") })

	err := g.Join()
	require.ErrorIs(t, err, ErrWorkerPanicked)
	require.Contains(t, err.Error(), "boom")
}

func TestGroup_WaitDiscardsFailures(t *testing.T) {
	var g Group
	g.Launch(func() error { return errors.New("ignored") })
	g.Launch(func() error { panic("ignored too") })
	g.Wait() // must not panic or report
}
