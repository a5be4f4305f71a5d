package cache

import (
	"bytes"
	"encoding/gob"
	"testing"
	"time"

	"github.com/borud/broker"

	"github.com/perbu/rxlint/pkg/ast"
)

func sampleNode() ast.Node {
	return &ast.Literal{Value: "abc"}
}

func TestGet_InMemoryHitAvoidsReparse(t *testing.T) {
	c := New(nil, nil, nil)
	calls := 0
	parse := func() (ast.Node, error) {
		calls++
		return sampleNode(), nil
	}

	if _, err := c.Get("k", parse); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Get("k", parse); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 1 {
		t.Errorf("parse called %d times, want 1", calls)
	}
}

func TestGet_DistinctKeysReparse(t *testing.T) {
	c := New(nil, nil, nil)
	calls := 0
	parse := func() (ast.Node, error) {
		calls++
		return sampleNode(), nil
	}

	if _, err := c.Get("a", parse); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := c.Get("b", parse); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 2 {
		t.Errorf("parse called %d times, want 2", calls)
	}
}

func TestKey_IsStableAndDistinct(t *testing.T) {
	k1 := Key("/foo/i")
	k2 := Key("/foo/i")
	k3 := Key("/bar/i")
	if k1 != k2 {
		t.Error("Key is not stable across calls with the same source")
	}
	if k1 == k3 {
		t.Error("Key collided for distinct sources")
	}
}

func TestEncodeDecode_RoundTrips(t *testing.T) {
	n := &ast.Literal{Value: "hello"}
	data, err := Encode(n)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	lit, ok := decoded.(*ast.Literal)
	if !ok {
		t.Fatalf("decoded node is %T, want *ast.Literal", decoded)
	}
	if lit.Value != "hello" {
		t.Errorf("Value = %q, want %q", lit.Value, "hello")
	}
}

func TestDecode_RejectsVersionMismatch(t *testing.T) {
	// Build a hand-crafted envelope at a different version rather than
	// mutating Encode's output blindly (gob's wire format isn't a fixed
	// byte layout).
	env := envelope{Version: FormatVersion + 1, Node: sampleNode()}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(env); err != nil {
		t.Fatalf("encoding test envelope: %v", err)
	}
	if _, err := Decode(buf.Bytes()); err == nil {
		t.Error("Decode accepted a payload with a mismatched version")
	}
}

func TestFileStore_RoundTrips(t *testing.T) {
	store := NewFileStore(t.TempDir())
	payload := []byte("opaque-bytes")

	if _, found, err := store.Read("missing"); err != nil || found {
		t.Fatalf("Read(missing) = (_, %v, %v), want (false, nil)", found, err)
	}
	if err := store.Write("k", payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, found, err := store.Read("k")
	if err != nil || !found {
		t.Fatalf("Read(k) = (_, %v, %v), want (true, nil)", found, err)
	}
	if string(data) != string(payload) {
		t.Errorf("Read(k) = %q, want %q", data, payload)
	}
}

func TestGet_PersistsThroughLayerTwo(t *testing.T) {
	store := NewFileStore(t.TempDir())
	b := broker.New(broker.Config{
		DownStreamChanLen:  16,
		PublishChanLen:     16,
		SubscribeChanLen:   16,
		UnsubscribeChanLen: 16,
		DeliveryTimeout:    time.Second,
	})

	c := New(store, b, nil)
	if _, err := c.Get("k", func() (ast.Node, error) { return sampleNode(), nil }); err != nil {
		t.Fatalf("Get: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, found, _ := store.Read("k"); found {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("layer-2 store never received the async persisted payload")
}
