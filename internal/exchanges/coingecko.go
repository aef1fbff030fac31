package exchanges

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pam-pakkiri/coinpree/internal/config"
)

const (
	coinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	coinGeckoPerPage = 250
	coinGeckoPages   = 2
)

// CoinGecko resolves market-cap ranks by base asset symbol.
type CoinGecko struct {
	rest  *restClient
	pages int
}

func NewCoinGecko(cfg config.CoinGeckoConfig, timeout time.Duration) *CoinGecko {
	base := cfg.BaseURL
	if base == "" {
		base = coinGeckoBaseURL
	}
	rest := newRESTClient(base, timeout)
	if cfg.APIKey != "" {
		rest.headers["x-cg-pro-api-key"] = cfg.APIKey
	}
	pages := cfg.Pages
	if pages <= 0 {
		pages = coinGeckoPages
	}
	return &CoinGecko{rest: rest, pages: pages}
}

type coinGeckoMarket struct {
	Symbol        string `json:"symbol"`
	MarketCapRank int    `json:"market_cap_rank"`
}

// FetchRanks returns upper-case symbol -> best market-cap rank. Pages after the first
// that fail are ignored; a failed first page is an error.
func (c *CoinGecko) FetchRanks(ctx context.Context) (map[string]int, error) {
	ranks := make(map[string]int)
	for page := 1; page <= c.pages; page++ {
		query := url.Values{
			"vs_currency": {"usd"},
			"order":       {"market_cap_desc"},
			"per_page":    {strconv.Itoa(coinGeckoPerPage)},
			"page":        {strconv.Itoa(page)},
		}
		var markets []coinGeckoMarket
		if err := c.rest.getJSON(ctx, "/coins/markets", query, &markets); err != nil {
			if page == 1 {
				return nil, fmt.Errorf("coingecko markets: %w", err)
			}
			break
		}
		for _, m := range markets {
			if m.Symbol == "" || m.MarketCapRank <= 0 {
				continue
			}
			sym := strings.ToUpper(m.Symbol)
			if r, ok := ranks[sym]; !ok || m.MarketCapRank < r {
				ranks[sym] = m.MarketCapRank
			}
		}
		if len(markets) < coinGeckoPerPage {
			break
		}
	}
	return ranks, nil
}
