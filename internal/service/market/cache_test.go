package market

import (
	"errors"
	"testing"
	"time"

	"SignalWatch/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func TestCacheInitialZeroTickers(t *testing.T) {
	c := NewCache([]string{"^TWII", "0050.TW"}, "^TWII")
	data, at := c.Snapshot()
	assert.Len(t, data, 2)
	assert.Equal(t, models.TickerData{}, data["0050.TW"])
	assert.True(t, at.IsZero())
	assert.False(t, c.Fresh(time.Hour))
}

func TestCacheMergeKeepsUntouchedSymbols(t *testing.T) {
	now := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
	c := NewCache([]string{"^TWII", "0050.TW"}, "^TWII")
	c.now = func() time.Time { return now }

	c.Merge(models.MarketData{"0050.TW": {Price: 150, Change: 1, ChangePercent: 0.67}})
	c.Merge(models.MarketData{"^TWII": {Price: 17000, Change: -120}})

	data, at := c.Snapshot()
	assert.Equal(t, 150.0, data["0050.TW"].Price)
	assert.Equal(t, -120.0, c.CumulativeDrop())
	assert.Equal(t, now, at)
	assert.True(t, c.Fresh(time.Second))

	now = now.Add(2 * time.Second)
	assert.False(t, c.Fresh(time.Second))
}

func TestCacheSnapshotIsCopy(t *testing.T) {
	c := NewCache([]string{"0050.TW"}, "^TWII")
	data, _ := c.Snapshot()
	data["0050.TW"] = models.TickerData{Price: 1}

	again, _ := c.Snapshot()
	assert.Equal(t, 0.0, again["0050.TW"].Price)
}

func TestCacheEmptyMergeAndFailure(t *testing.T) {
	c := NewCache([]string{"0050.TW"}, "^TWII")
	c.Merge(models.MarketData{"0050.TW": {Price: 2}})
	_, at := c.Snapshot()

	c.Fail(errors.New("boom"))
	assert.Error(t, c.LastError())

	c.Merge(models.MarketData{})
	assert.NoError(t, c.LastError())
	data, at2 := c.Snapshot()
	assert.Equal(t, 2.0, data["0050.TW"].Price)
	assert.Equal(t, at, at2)
}
