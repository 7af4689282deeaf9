package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte("environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, "redis", c.Store.Backend)
	assert.Empty(t, c.Store.Prefix)
	assert.Equal(t, 12*time.Hour, c.Signals.Cooldown)
	assert.Equal(t, 12*time.Hour, c.Signals.Retention)
	assert.Equal(t, "attempt", c.Signals.MarkPolicy)
	assert.Equal(t, []string{"0050.TW", "00646.TW", "00878.TW"}, c.Signals.EquityETFs)
	assert.Equal(t, []string{"00933B.TW"}, c.Signals.BondETFs)
	assert.Equal(t, "none", c.History.Backend)
	assert.Len(t, c.Market.Symbols, 5)
	assert.Equal(t, 5*time.Second, c.Line.Timeout)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"store backend": "store:\n  backend: etcd\n",
		"mark policy":   "signals:\n  mark_policy: sometimes\n",
		"http source":   "indicators:\n  source: http\n",
		"kafka history": "history:\n  backend: kafka\n",
		"ch history":    "history:\n  backend: clickhouse\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte("line:\n  user_id: from-yaml\n"))
	require.NoError(t, err)

	env := map[string]string{
		"LINE_CHANNEL_ACCESS_TOKEN": "tok",
		"KAFKA_BROKERS":             "a:9092, b:9092,",
		"CRON_SECRET":               "s3cret",
	}
	c.ApplyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "tok", c.Line.ChannelAccessToken)
	assert.Equal(t, "from-yaml", c.Line.UserID)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "s3cret", c.Scheduler.TriggerToken)
}
