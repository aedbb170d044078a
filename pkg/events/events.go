package events

import "context"

// Event is the envelope published on change channels. Payload carries the
// document id that changed, when one applies; subscribers re-read state from
// the store rather than trusting the payload.
type Event struct {
	Type      string `json:"type"`
	Payload   string `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

type Handler func(ctx context.Context, event Event)

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

// Subscriber delivers events for one channel until the returned cancel func
// is called. Cancel blocks until the feed goroutine has stopped, so no
// handler invocation can arrive after it returns.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler Handler) (func(), error)
}

type Broker interface {
	Publisher
	Subscriber
}
