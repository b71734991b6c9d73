package eventstream

import "context"

// Forward subscribes to streamer and hands every payload to handle until the
// subscription ends, ctx is done or handle fails. Events still buffered when
// the streamer shuts down are delivered before Forward returns.
func Forward[Topic any, Payload any](
	ctx context.Context,
	streamer SyncStreamer[Topic, Payload],
	filter TopicFilter[Topic],
	handle func(Topic, Payload) error,
) error {
	events, err := streamer.Subscribe(ctx, filter)
	if err != nil {
		return err
	}
	return Drain(ctx, events, handle)
}

// Drain is the loop of Forward for an existing subscription.
func Drain[Topic any, Payload any](
	ctx context.Context,
	events <-chan Event[Topic, Payload],
	handle func(Topic, Payload) error,
) error {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if err := handle(evt.Topic, evt.Payload); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
