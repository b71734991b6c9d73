package mutation

import "context"

// Publisher handles automatic event publishing after commit.
type Publisher interface {
	// PublishAll is called by Context.Commit once the transaction is durable.
	PublishAll(ctx context.Context, events []Event)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, events []Event)

func (f PublisherFunc) PublishAll(ctx context.Context, events []Event) {
	f(ctx, events)
}
