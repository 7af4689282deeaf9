package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.DebugLevel).With(String("run_id", "r1"))
	l.Info("cycle done", Int("found", 2), Duration("duration_ms", 1500*time.Millisecond))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "cycle done", line["message"])
	assert.Equal(t, "r1", line["run_id"])
	assert.Equal(t, 2.0, line["found"])
	assert.Equal(t, 1500.0, line["duration_ms"])
}

func TestCollectorAggregatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	l := NewWriter(&bytes.Buffer{}, zerolog.DebugLevel)
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "logs", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("delivery failed", String("signal", "vix_high"))
	}
	l.Warn("not collected")
	assert.Equal(t, 1, l.collector.Pending())

	l.RemoveCollector()

	require.Len(t, pub.batches, 1)
	assert.Equal(t, "logs", pub.topic)
	entry := pub.batches[0][0]
	assert.Equal(t, 3, entry.Count)
	assert.Equal(t, "vix_high", entry.Fields["signal"])
}

func TestCollectorThresholdFlush(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	assert.Eventually(t, func() bool {
		pub.mu.Lock()
		defer pub.mu.Unlock()
		return len(pub.batches) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, c.Pending())
}
