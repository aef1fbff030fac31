package scoring

import (
	"fmt"

	"github.com/pam-pakkiri/coinpree/pkg/models"
)

const (
	AdvancedMinScore  = 60
	AdvancedMinRR     = 0.5
	StructureMinScore = 60
	StructureMinRR    = 1.0

	rsiOverbought   = 70
	rsiOversold     = 30
	stochOverbought = 80
	stochOversold   = 20
	volumeSurge     = 1.2
)

// AdvancedInput is the state of the signal candle of an EMA 5/12/50 cross.
type AdvancedInput struct {
	Direction    models.Direction
	TrendAligned bool // fast > slow > trend (mirrored for SELL)
	HTFAligned   bool
	VolumeRatio  float64 // volume / 20-candle mean
	RSI          float64
	StochK       float64
	Pattern      bool
}

// ScoreAdvanced scores a crossover with trend, higher-timeframe, volume, momentum and
// pattern confirmation. ok is false when RSI or Stochastic reject the setup outright.
func ScoreAdvanced(in AdvancedInput) (card *Card, ok bool) {
	buy := in.Direction == models.Buy
	if buy && (in.RSI > rsiOverbought || in.StochK > stochOverbought) {
		return nil, false
	}
	if !buy && (in.RSI < rsiOversold || in.StochK < stochOversold) {
		return nil, false
	}

	card = NewCard()
	if !in.TrendAligned {
		card.Add(-20, "Counter-trend")
	}
	if in.HTFAligned {
		if buy {
			card.Add(20, "HTF Bullish")
		} else {
			card.Add(20, "HTF Bearish")
		}
	}
	if in.VolumeRatio > volumeSurge {
		card.Add(10, "High Volume")
	}
	card.Add(5, "")
	if in.Pattern {
		if buy {
			card.Add(15, "Bullish Pattern")
		} else {
			card.Add(15, "Bearish Pattern")
		}
	}
	return card, true
}

// StructureInput is a break of structure with its surrounding context.
type StructureInput struct {
	Direction   models.Direction
	EMAStacked  bool // EMA9 vs EMA21 agrees with the direction
	VolumeRatio float64
	FVG         bool // a fair-value gap in the same direction among recent candles
	RSI         float64
}

func ScoreStructure(in StructureInput) *Card {
	card := NewCard()
	if in.Direction == models.Buy {
		card.Add(5, "Break of structure (bullish)")
	} else {
		card.Add(5, "Break of structure (bearish)")
	}
	if in.EMAStacked {
		card.Add(15, "EMA 9/21 aligned")
	} else {
		card.Add(-15, "EMA 9/21 against break")
	}
	if in.VolumeRatio > 2.5 {
		card.Add(10, fmt.Sprintf("Volume %.1fx average", in.VolumeRatio))
	}
	if in.FVG {
		card.Add(10, "Fair value gap")
	}
	if (in.Direction == models.Buy && in.RSI > 75) || (in.Direction == models.Sell && in.RSI > 0 && in.RSI < 25) {
		card.Add(-10, "RSI overextended")
	}
	return card
}

// ScoreSweep ranks a liquidity sweep: confirmed setups and heavier volume score higher.
func ScoreSweep(confirmed bool, volumeRatio, upperWickPct float64) *Card {
	card := NewCard()
	if confirmed {
		card.Add(20, "Confirmed rejection")
	} else {
		card.Note("Potential rejection")
	}
	switch {
	case volumeRatio >= 2:
		card.Add(15, fmt.Sprintf("Volume %.1fx average", volumeRatio))
	case volumeRatio >= 1.5:
		card.Add(10, fmt.Sprintf("Volume %.1fx average", volumeRatio))
	case volumeRatio >= 1:
		card.Add(5, "")
	}
	if upperWickPct >= 60 {
		card.Add(10, fmt.Sprintf("Upper wick %.0f%%", upperWickPct))
	}
	return card
}
