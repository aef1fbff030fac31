package aggregator

import (
	"math"
	"time"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

// weekOffsetMs shifts weekly buckets from the epoch Thursday to Monday 00:00 UTC.
const weekOffsetMs = int64(4 * 24 * time.Hour / time.Millisecond)

// Builder folds ascending candles into buckets of a longer interval.
type Builder struct {
	intervalMs int64
	offsetMs   int64
	current    models.Candle
	hasData    bool
	closed     []models.Candle
}

func NewBuilder(interval time.Duration) *Builder {
	b := &Builder{intervalMs: int64(interval / time.Millisecond)}
	if interval == 7*24*time.Hour {
		b.offsetMs = weekOffsetMs
	}
	return b
}

// BucketStart returns the open time of the bucket containing ts.
func (b *Builder) BucketStart(ts int64) int64 {
	if b.intervalMs <= 0 {
		return ts
	}
	shifted := ts - b.offsetMs
	start := (shifted / b.intervalMs) * b.intervalMs
	if shifted < 0 && shifted%b.intervalMs != 0 {
		start -= b.intervalMs
	}
	return start + b.offsetMs
}

// Add folds c into the current bucket, closing it first when c starts a new one.
func (b *Builder) Add(c models.Candle) {
	bucketStart := b.BucketStart(c.Time)
	if b.hasData && bucketStart != b.current.Time {
		b.closed = append(b.closed, b.current)
		b.hasData = false
	}
	if !b.hasData {
		b.reset(bucketStart, c)
		return
	}
	b.update(c)
}

func (b *Builder) update(c models.Candle) {
	b.current.High = math.Max(b.current.High, c.High)
	b.current.Low = math.Min(b.current.Low, c.Low)
	b.current.Close = c.Close
	b.current.Volume += c.Volume
}

func (b *Builder) reset(bucketStart int64, c models.Candle) {
	b.current = models.Candle{
		Time:   bucketStart,
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
	b.hasData = true
}

// Candles returns every bucket including the still-open last one.
func (b *Builder) Candles() []models.Candle {
	out := make([]models.Candle, 0, len(b.closed)+1)
	out = append(out, b.closed...)
	if b.hasData {
		out = append(out, b.current)
	}
	return out
}

// Resample aggregates ascending candles into interval buckets. A leading bucket that
// starts before the first source candle is partial and is dropped.
func Resample(candles []models.Candle, interval time.Duration) []models.Candle {
	if len(candles) == 0 || interval <= 0 {
		return []models.Candle{}
	}
	b := NewBuilder(interval)
	for _, c := range candles {
		b.Add(c)
	}
	out := b.Candles()
	if len(out) > 0 && b.BucketStart(candles[0].Time) != candles[0].Time {
		out = out[1:]
	}
	return out
}
