package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	queue := NewQueue("test", func(_ context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		assert.Equal(t, 2, job.Attempt)
		close(done)
		return nil
	}, QueueConfig{Workers: 2, MaxRetries: 3, RetryDelay: 5 * time.Millisecond})

	queue.Start(context.Background())
	defer queue.Stop()
	require.NoError(t, queue.Enqueue(Job{ID: "job-1", Type: "test"}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not succeed")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, queue.Enqueue(Job{ID: "job-1"}))
	assert.Equal(t, 0, queue.Pending())
}
