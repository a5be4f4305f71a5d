// Package events defines the bare structs ParseCache publishes over
// its broker topic: one plain struct per lifecycle event, no behavior.
// Subscribers type-assert on the message payload.
package events

// Cache lifecycle events (published to /cache stream)

// EventCacheHit is published when ParseCache answers a Get from layer
// 1, or from a layer-2 payload that decoded successfully.
type EventCacheHit struct {
	Key string
}

// EventCacheMiss is published the instant a parse result has been
// written into layer 1. It carries no payload; EventPersistRequested
// is what actually drives the layer-2 write.
type EventCacheMiss struct {
	Key string
}

// EventPersistRequested carries an encoded AST payload produced on a
// cache miss, destined for the layer-2 Store's Write. The persister
// goroutine is the only subscriber that acts on it.
type EventPersistRequested struct {
	Key     string
	Payload []byte
}

// EventPersistWriteFailed is published when the layer-2 store's Write
// fails. The failure itself is swallowed — cache writes never block or
// fail a lookup — but stays observable here for a collaborator that
// wants to log or alert on it.
type EventPersistWriteFailed struct {
	Key   string
	Error error
}
