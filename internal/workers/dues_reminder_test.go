package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingChecker struct {
	calls atomic.Int32
	err   error
}

func (c *countingChecker) CheckDues(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestDuesReminderRunsUntilCancelled(t *testing.T) {
	checker := &countingChecker{}
	worker := NewDuesReminder(checker, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.Eventually(t, func() bool { return checker.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestDuesReminderKeepsRunningOnError(t *testing.T) {
	checker := &countingChecker{err: errors.New("store down")}
	worker := NewDuesReminder(checker, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = worker.Run(ctx) }()

	require.Eventually(t, func() bool { return checker.calls.Load() >= 2 }, time.Second, time.Millisecond)
}

func TestDuesReminderDisabled(t *testing.T) {
	checker := &countingChecker{}
	require.NoError(t, NewDuesReminder(checker, 0).Run(context.Background()))
	assert.Zero(t, checker.calls.Load())
}
