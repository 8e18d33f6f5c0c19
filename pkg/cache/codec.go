package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/matzehuels/depscan/pkg/graph"
	"github.com/matzehuels/depscan/pkg/observability"
)

// Encoder and decoder are safe for concurrent use through EncodeAll and
// DecodeAll.
var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// EncodeGraph serializes g as a zstd-compressed MessagePack document.
func EncodeGraph(g *graph.Graph) ([]byte, error) {
	raw, err := msgpack.Marshal(graph.ToDocument(g))
	if err != nil {
		return nil, fmt.Errorf("encode graph: %w", err)
	}
	return zstdEncoder.EncodeAll(raw, nil), nil
}

// DecodeGraph reverses EncodeGraph.
func DecodeGraph(data []byte) (*graph.Graph, error) {
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress graph: %w", err)
	}
	var doc graph.Document
	if err := msgpack.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	return graph.FromDocument(doc)
}

// Graphs stores parsed graphs in a Cache and reports hits and misses to the
// registered observability hooks.
type Graphs struct {
	Cache Cache
	TTL   time.Duration
}

// Get returns the cached graph for key. Undecodable entries are deleted and
// reported as misses.
func (s Graphs) Get(ctx context.Context, key string) (*graph.Graph, bool) {
	data, ok, err := s.Cache.Get(ctx, key)
	if err != nil || !ok {
		observability.Cache().OnCacheMiss(ctx, "graph")
		return nil, false
	}
	g, err := DecodeGraph(data)
	if err != nil {
		_ = s.Cache.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, "graph")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "graph")
	return g, true
}

// Put stores g under key.
func (s Graphs) Put(ctx context.Context, key string, g *graph.Graph) error {
	data, err := EncodeGraph(g)
	if err != nil {
		return err
	}
	if err := s.Cache.Set(ctx, key, data, s.TTL); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, "graph", len(data))
	return nil
}
