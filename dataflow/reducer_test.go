package dataflow

import (
	"context"
	"testing"
)

func TestReducerActorFoldsDispatchedEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ra := NewReducerActor(ctx, 0, 0)
	defer ra.Stop()

	for i := 0; i < 5; i++ {
		ra.Dispatch(func(n int) int { return n + 1 })
	}

	waitFor(t, func() bool { return ra.Get() == 5 })
}
