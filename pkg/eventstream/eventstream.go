package eventstream

import "context"

// Event is one payload published on a topic.
type Event[Topic any, Payload any] struct {
	Topic   Topic
	Payload Payload
}

// TopicFilter selects the topics a subscriber receives. A nil filter
// receives everything.
type TopicFilter[Topic any] func(Topic) bool

// SyncStreamer fans published events out to subscribers.
type SyncStreamer[Topic any, Payload any] interface {
	// Subscribe returns a channel of events matching filter. The channel is
	// closed when ctx is done or the streamer shuts down.
	Subscribe(ctx context.Context, filter TopicFilter[Topic]) (<-chan Event[Topic, Payload], error)

	// Publish never blocks. Events that do not fit a subscriber's buffer are
	// dropped for that subscriber and counted.
	Publish(topic Topic, payloads ...Payload)

	// Dropped returns how many deliveries were dropped so far.
	Dropped() uint64

	Shutdown()
}
