package queue_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/izznatsir/state-designer/event"
	"github.com/izznatsir/state-designer/queue"
)

func TestQueueFIFO(t *testing.T) {
	q := queue.New()
	q.Push(event.Event{Name: "first"})
	q.Push(event.Event{Name: "second", Payload: 2})

	head, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "first", head.Name)

	head, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "second", head.Name)
	require.Equal(t, 2, head.Payload)

	_, ok = q.Pop()
	require.False(t, ok)
}

func TestQueuePushDuringDrain(t *testing.T) {
	q := queue.New(8)
	q.Push(event.Event{Name: "a"})
	head, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "a", head.Name)

	// Events enqueued mid-drain land behind the remaining ones.
	q.Push(event.Event{Name: "b"})
	q.Push(event.Event{Name: "c"})
	head, _ = q.Pop()
	require.Equal(t, "b", head.Name)
	head, _ = q.Pop()
	require.Equal(t, "c", head.Name)
}
