package models

import "time"

type Direction string

const (
	Buy  Direction = "BUY"
	Sell Direction = "SELL"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusPending Status = "PENDING"
)

// Candle is one OHLCV bucket. Time is the bucket open time in unix milliseconds.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

func (c Candle) Timestamp() time.Time {
	return time.UnixMilli(c.Time)
}

// Valid reports whether the candle satisfies high >= max(open,close) >= min(open,close) >= low
// with strictly positive prices.
func (c Candle) Valid() bool {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 || c.Volume < 0 {
		return false
	}
	top := c.Open
	bottom := c.Close
	if c.Close > c.Open {
		top, bottom = c.Close, c.Open
	}
	return c.High >= top && bottom >= c.Low
}

func (c Candle) Bullish() bool { return c.Close > c.Open }
func (c Candle) Bearish() bool { return c.Close < c.Open }

// Ticker is one entry of an exchange symbol universe.
type Ticker struct {
	Symbol             string  `json:"symbol"`
	LastPrice          float64 `json:"lastPrice"`
	QuoteVolume        float64 `json:"quoteVolume"`
	PriceChangePercent float64 `json:"priceChangePercent"`
}

type ExhaustionCandle struct {
	Candle
	Setup        string  `json:"setup"`
	UpperWickPct float64 `json:"upperWickPct"`
	BodyPct      float64 `json:"bodyPct"`
	MovePct      float64 `json:"movePct"`
	VolumeRatio  float64 `json:"volumeRatio"`
	EMA50        float64 `json:"ema50"`
	EMA200       float64 `json:"ema200"`
}

type Signal struct {
	ID              string            `json:"id"`
	Symbol          string            `json:"symbol"`
	Exchange        string            `json:"exchange"`
	Timeframe       string            `json:"timeframe"`
	Strategy        string            `json:"strategy"`
	Direction       Direction         `json:"direction"`
	EntryPrice      float64           `json:"entryPrice"`
	StopLoss        float64           `json:"stopLoss"`
	TakeProfit      float64           `json:"takeProfit"`
	RiskRewardRatio float64           `json:"riskRewardRatio"`
	Score           int               `json:"score"`
	Reasons         []string          `json:"reasons"`
	Timestamp       int64             `json:"timestamp"`
	Status          Status            `json:"status"`
	SourceLink      string            `json:"sourceLink"`
	CandlesAgo      int               `json:"candlesAgo"`
	Exhaustion      *ExhaustionCandle `json:"exhaustion,omitempty"`
}

// Closes extracts the close prices of candles.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
