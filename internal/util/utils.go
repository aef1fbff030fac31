package util

import (
	"regexp"
	"strconv"
	"strings"
)

// ParseFloat parses s, reporting ok=false for empty or malformed input.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var quoteSuffixes = []string{"USDT", "USDC", "USD"}

// BaseAsset strips exchange decorations from a symbol: BTCUSDT, BTC-USD, BTC-PERP and
// 1000PEPEUSDT become BTC, BTC, BTC and PEPE.
func BaseAsset(symbol string) string {
	s := strings.ToUpper(symbol)
	s = strings.TrimSuffix(s, "-PERP")
	if i := strings.Index(s, "-"); i > 0 {
		s = s[:i]
	}
	for _, q := range quoteSuffixes {
		if strings.HasSuffix(s, q) && len(s) > len(q) {
			s = strings.TrimSuffix(s, q)
			break
		}
	}
	if strings.HasPrefix(s, "1000") && len(s) > 4 {
		s = strings.TrimPrefix(s, "1000")
	}
	return s
}

// SymbolToBinanceSpotPath converts BTCUSDT to BTC_USDT for Binance trade page links.
func SymbolToBinanceSpotPath(symbol string) string {
	for _, q := range quoteSuffixes {
		if strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
			return strings.TrimSuffix(symbol, q) + "_" + q
		}
	}
	return symbol
}

var unsafeKeyChars = regexp.MustCompile(`[^a-z0-9]`)

// SafeFileName maps an arbitrary cache key to a filesystem safe name.
func SafeFileName(key string) string {
	return unsafeKeyChars.ReplaceAllString(strings.ToLower(key), "_")
}
