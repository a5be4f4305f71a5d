// Package cache implements ParseCache, the two-layer cache sitting in
// front of the parse pipeline: an in-process map (layer 1) backed
// optionally by a pluggable persistent Store (layer 2). Layer-2 writes
// run on a broker-subscribed background goroutine so Get() never waits
// on a write; a layer-1 miss does read layer 2 synchronously.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/borud/broker"

	"github.com/perbu/rxlint/pkg/ast"
	"github.com/perbu/rxlint/pkg/events"
)

const cacheTopic = "/cache"
const publishTimeout = 1 * time.Second

// ParseCache is guarded for single-writer/many-reader access to layer
// 1; layer-2 writes never happen on the calling goroutine (layer-2
// reads do, inside Get).
type ParseCache struct {
	mu     sync.RWMutex
	layer1 map[string]ast.Node
	store  Store
	broker *broker.Broker
	logger *slog.Logger
}

// New builds a ParseCache. store and b may each be nil: a nil store
// means layer-1-only (config.CacheInMemory); a nil broker disables
// event publication entirely. logger falls back to slog.Default().
func New(store Store, b *broker.Broker, logger *slog.Logger) *ParseCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ParseCache{
		layer1: make(map[string]ast.Node),
		store:  store,
		broker: b,
		logger: logger,
	}
	if store != nil && b != nil {
		c.startPersister()
	}
	return c
}

// Key derives a cache key from source, folding in FormatVersion so a
// binary upgrade invalidates stale layer-2 payloads instead of
// misreading them.
func Key(source string) string {
	sum := sha256.Sum256(append([]byte(source), byte(FormatVersion)))
	return hex.EncodeToString(sum[:])
}

// Get returns the AST cached under key, calling parse exactly once on
// a genuine miss. A layer-1 hit, or a layer-2 payload that decodes
// cleanly, short-circuits parse entirely. A fresh
// parse result is written into layer 1 synchronously and handed to
// the persister goroutine for a best-effort, fire-and-forget layer-2
// write; a persistence failure is logged and never returned to the
// caller.
func (c *ParseCache) Get(key string, parse func() (ast.Node, error)) (ast.Node, error) {
	c.mu.RLock()
	node, ok := c.layer1[key]
	c.mu.RUnlock()
	if ok {
		c.publish(events.EventCacheHit{Key: key})
		return node, nil
	}

	if c.store != nil {
		if data, found, err := c.store.Read(key); err != nil {
			c.logger.Error("cache: layer-2 read failed", "key", key, "error", err)
		} else if found {
			if decoded, derr := Decode(data); derr == nil {
				c.mu.Lock()
				c.layer1[key] = decoded
				c.mu.Unlock()
				c.publish(events.EventCacheHit{Key: key})
				return decoded, nil
			} else {
				c.logger.Warn("cache: discarding layer-2 payload", "key", key, "error", derr)
			}
		}
	}

	node, err := parse()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.layer1[key] = node
	c.mu.Unlock()
	c.publish(events.EventCacheMiss{Key: key})

	if c.store != nil {
		if payload, eerr := Encode(node); eerr == nil {
			c.publish(events.EventPersistRequested{Key: key, Payload: payload})
		} else {
			c.logger.Error("cache: encoding ast for persistence failed", "key", key, "error", eerr)
		}
	}
	return node, nil
}

func (c *ParseCache) publish(evt any) {
	if c.broker == nil {
		return
	}
	_ = c.broker.Publish(cacheTopic, evt, publishTimeout)
}

// startPersister subscribes to the cache topic and performs every
// layer-2 write off Get()'s synchronous path.
func (c *ParseCache) startPersister() {
	subscriber, err := c.broker.Subscribe(cacheTopic)
	if err != nil {
		c.logger.Error("cache: failed to subscribe to persister topic", "error", err)
		return
	}
	go func() {
		for msg := range subscriber.Messages() {
			req, ok := msg.Payload.(events.EventPersistRequested)
			if !ok {
				continue
			}
			if err := c.store.Write(req.Key, req.Payload); err != nil {
				c.logger.Error("cache: layer-2 write failed", "key", req.Key, "error", err)
				c.publish(events.EventPersistWriteFailed{Key: req.Key, Error: err})
			}
		}
	}()
}
