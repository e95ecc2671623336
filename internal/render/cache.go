package render

import (
	"bytes"
	"sync"
	"sync/atomic"
	"time"

	"soccer-arena/internal/match"
)

const (
	DefaultMaxFrames = 8
	FrameTTL         = 10 * time.Second
)

// frameKey identifies one rendered frame. The match seed separates matches.
type frameKey struct {
	seed  int64
	frame int
	half  int
}

type cachedFrame struct {
	png        []byte
	renderedAt time.Time
}

// FrameCache stores encoded PNG frames with FIFO eviction so that viewers
// polling the same frame share one render.
type FrameCache struct {
	renderer *Renderer

	mu      sync.Mutex
	frames  map[frameKey]*cachedFrame
	order   []frameKey // oldest first
	maxSize int

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewFrameCache wraps r. A non-positive maxSize uses DefaultMaxFrames.
func NewFrameCache(r *Renderer, maxSize int) *FrameCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrames
	}
	return &FrameCache{
		renderer: r,
		frames:   make(map[frameKey]*cachedFrame),
		order:    make([]frameKey, 0, maxSize),
		maxSize:  maxSize,
	}
}

// PNG returns the encoded frame for snap, rendering it on a miss. The
// returned slice is shared and must not be modified.
func (c *FrameCache) PNG(snap match.Snapshot) ([]byte, error) {
	key := frameKey{seed: snap.Seed, frame: snap.Frame, half: snap.Half}

	c.mu.Lock()
	if cached, ok := c.frames[key]; ok && time.Since(cached.renderedAt) <= FrameTTL {
		c.mu.Unlock()
		c.hits.Add(1)
		return cached.png, nil
	}
	c.mu.Unlock()
	c.misses.Add(1)

	// Render outside the lock; two concurrent misses may both render
	var buf bytes.Buffer
	if err := c.renderer.EncodePNG(&buf, snap); err != nil {
		return nil, err
	}
	data := buf.Bytes()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.frames[key]; !ok {
		if len(c.frames) >= c.maxSize {
			c.evict()
		}
		c.order = append(c.order, key)
	}
	c.frames[key] = &cachedFrame{png: data, renderedAt: time.Now()}
	return data, nil
}

// evict removes the oldest frame. Caller holds c.mu.
func (c *FrameCache) evict() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.frames, oldest)
}

// Size returns the number of cached frames
func (c *FrameCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

// Stats returns hit and miss counters
func (c *FrameCache) Stats() map[string]uint64 {
	return map[string]uint64{
		"hits":   c.hits.Load(),
		"misses": c.misses.Load(),
	}
}
