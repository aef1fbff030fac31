package models

import (
	"strings"
	"time"
)

type Timeframe string

const (
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF30m Timeframe = "30m"
	TF1h  Timeframe = "1h"
	TF2h  Timeframe = "2h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"

	// TF1w is only used as a higher timeframe for 1d scans.
	TF1w Timeframe = "1w"
)

// Timeframes lists the values accepted from callers, in ascending order.
var Timeframes = []Timeframe{TF5m, TF15m, TF30m, TF1h, TF2h, TF4h, TF1d}

// ParseTimeframe returns the timeframe for s, or def when s is not one of Timeframes.
func ParseTimeframe(s string, def Timeframe) Timeframe {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, tf := range Timeframes {
		if string(tf) == s {
			return tf
		}
	}
	return def
}

func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF5m:
		return 5 * time.Minute
	case TF15m:
		return 15 * time.Minute
	case TF30m:
		return 30 * time.Minute
	case TF1h:
		return time.Hour
	case TF2h:
		return 2 * time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF1d:
		return 24 * time.Hour
	case TF1w:
		return 7 * 24 * time.Hour
	}
	return 0
}

// Higher returns the confirmation timeframe used for trend agreement.
func (tf Timeframe) Higher() Timeframe {
	switch tf {
	case TF5m, TF15m:
		return TF1h
	case TF30m, TF1h:
		return TF4h
	case TF2h, TF4h:
		return TF1d
	default:
		return TF1w
	}
}

func (tf Timeframe) String() string { return string(tf) }
