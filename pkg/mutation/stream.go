package mutation

import (
	"context"

	"github.com/the-dev-tools/storyline/pkg/eventstream"
)

// StreamNotifier republishes notifications on a streamer, topic by entity
// type.
type StreamNotifier struct {
	streamer eventstream.SyncStreamer[EntityType, Event]
}

func NewStreamNotifier(streamer eventstream.SyncStreamer[EntityType, Event]) *StreamNotifier {
	return &StreamNotifier{streamer: streamer}
}

func (n *StreamNotifier) GroupMemberChanged(_ context.Context, evt Event) error {
	n.streamer.Publish(evt.Entity, evt)
	return nil
}
