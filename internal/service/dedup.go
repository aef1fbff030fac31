package service

import "github.com/pam-pakkiri/coinpree/pkg/models"

// DedupMode selects the identity used to collapse signals from several exchanges.
type DedupMode int

const (
	DedupBySymbol DedupMode = iota
	DedupBySymbolDirection
)

// Merge concatenates lists and orders the result with SortSignals.
func Merge(lists ...[]models.Signal) []models.Signal {
	var total int
	for _, l := range lists {
		total += len(l)
	}
	out := make([]models.Signal, 0, total)
	for _, l := range lists {
		out = append(out, l...)
	}
	SortSignals(out)
	return out
}

// Dedup keeps the first signal for each identity. Applied to Merge output this keeps
// the best scored one.
func Dedup(signals []models.Signal, mode DedupMode) []models.Signal {
	seen := make(map[string]struct{}, len(signals))
	out := make([]models.Signal, 0, len(signals))
	for _, s := range signals {
		key := s.Symbol
		if mode == DedupBySymbolDirection {
			key += "|" + string(s.Direction)
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
