package eventstream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-dev-tools/storyline/pkg/eventstream"
	"github.com/the-dev-tools/storyline/pkg/eventstream/memory"
)

type testEvent struct {
	ID string
}

func receive(t *testing.T, ch <-chan eventstream.Event[string, testEvent]) eventstream.Event[string, testEvent] {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "channel closed")
		return evt
	case <-time.After(time.Second):
		t.Fatal("did not receive event within timeout")
	}
	return eventstream.Event[string, testEvent]{}
}

func TestInMemorySyncStreamer_PublishSubscribe(t *testing.T) {
	streamer := memory.NewInMemorySyncStreamer[string, testEvent]()
	defer streamer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	all, err := streamer.Subscribe(ctx, nil)
	require.NoError(t, err)
	quests, err := streamer.Subscribe(ctx, func(topic string) bool { return topic == "quest" })
	require.NoError(t, err)

	streamer.Publish("story", testEvent{ID: "s1"})
	streamer.Publish("quest", testEvent{ID: "q1"}, testEvent{ID: "q2"})

	assert.Equal(t, "s1", receive(t, all).Payload.ID)
	assert.Equal(t, "q1", receive(t, all).Payload.ID)
	assert.Equal(t, "q2", receive(t, all).Payload.ID)

	evt := receive(t, quests)
	assert.Equal(t, "quest", evt.Topic)
	assert.Equal(t, "q1", evt.Payload.ID)
	assert.Equal(t, "q2", receive(t, quests).Payload.ID)
}

func TestInMemorySyncStreamer_SubscriberCancellation(t *testing.T) {
	streamer := memory.NewInMemorySyncStreamer[string, testEvent]()
	defer streamer.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := streamer.Subscribe(ctx, nil)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancellation")
	}
}

func TestInMemorySyncStreamer_DropsWhenFull(t *testing.T) {
	streamer := memory.NewInMemorySyncStreamer[string, testEvent](memory.WithBuffer(2))
	defer streamer.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := streamer.Subscribe(ctx, nil)
	require.NoError(t, err)

	streamer.Publish("story", testEvent{ID: "1"}, testEvent{ID: "2"}, testEvent{ID: "3"})
	assert.Equal(t, uint64(1), streamer.Dropped())
}

func TestInMemorySyncStreamer_Shutdown(t *testing.T) {
	streamer := memory.NewInMemorySyncStreamer[string, testEvent]()

	events, err := streamer.Subscribe(context.Background(), nil)
	require.NoError(t, err)
	streamer.Publish("story", testEvent{ID: "kept"})
	streamer.Shutdown()
	streamer.Shutdown()

	assert.Equal(t, "kept", receive(t, events).Payload.ID)
	_, ok := <-events
	assert.False(t, ok)

	_, err = streamer.Subscribe(context.Background(), nil)
	assert.ErrorIs(t, err, memory.ErrStreamerClosed)
	streamer.Publish("story", testEvent{ID: "ignored"})
}

func TestForward(t *testing.T) {
	streamer := memory.NewInMemorySyncStreamer[string, testEvent]()
	ctx := context.Background()

	events, err := streamer.Subscribe(ctx, nil)
	require.NoError(t, err)

	streamer.Publish("story", testEvent{ID: "a"}, testEvent{ID: "b"})
	streamer.Shutdown()

	var got []string
	err = eventstream.Drain(ctx, events, func(topic string, evt testEvent) error {
		got = append(got, topic+":"+evt.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"story:a", "story:b"}, got)

	stop := errors.New("stop")
	other := memory.NewInMemorySyncStreamer[string, testEvent]()
	defer other.Shutdown()
	done := make(chan error, 1)
	subscribed := make(chan struct{})
	go func() {
		events, err := other.Subscribe(ctx, nil)
		if err != nil {
			done <- err
			return
		}
		close(subscribed)
		done <- eventstream.Drain(ctx, events, func(string, testEvent) error { return stop })
	}()
	<-subscribed
	other.Publish("quest", testEvent{ID: "x"})

	select {
	case err := <-done:
		assert.ErrorIs(t, err, stop)
	case <-time.After(time.Second):
		t.Fatal("Drain did not return")
	}
}
