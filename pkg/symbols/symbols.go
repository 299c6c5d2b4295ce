package symbols

import (
	"sort"
	"strings"
)

// PopularTickers is the static suggestion universe shown on the dashboard
// and used to build the top-movers table.
var PopularTickers = []string{
	"AAPL", "GOOGL", "GOOG", "AMZN", "MSFT", "NVDA", "META", "NFLX", "ADBE", "CRM",
	"ORCL", "IBM", "INTC", "AMD", "QCOM", "AVGO", "CSCO", "PYPL", "SQ", "UBER",
	"LYFT", "SNAP", "TWTR", "ZOOM", "TSLA", "F", "GM", "NIO",
}

// MaxSuggestions caps the suggestion list length.
const MaxSuggestions = 10

var sortedTickers = func() []string {
	s := make([]string, len(PopularTickers))
	copy(s, PopularTickers)
	sort.Strings(s)
	return s
}()

// Normalize trims and uppercases user input.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// IsValid reports whether symbol looks like a ticker: letters only,
// one to five characters. Input is expected to be normalized.
func IsValid(symbol string) bool {
	if len(symbol) < 1 || len(symbol) > 5 {
		return false
	}
	for _, r := range symbol {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Suggest ranks tickers against term: exact match first, then prefix
// matches, then substring matches. An empty term returns the most popular
// tickers. Results never exceed MaxSuggestions.
func Suggest(term string) []string {
	if term == "" {
		n := MaxSuggestions
		if n > len(PopularTickers) {
			n = len(PopularTickers)
		}
		out := make([]string, n)
		copy(out, PopularTickers[:n])
		return out
	}

	term = Normalize(term)
	suggestions := make([]string, 0, MaxSuggestions)
	added := make(map[string]bool, MaxSuggestions)

	idx := sort.SearchStrings(sortedTickers, term)
	if idx < len(sortedTickers) && sortedTickers[idx] == term {
		suggestions = append(suggestions, term)
		added[term] = true
	}

	for _, ticker := range sortedTickers {
		if len(suggestions) >= MaxSuggestions {
			break
		}
		if strings.HasPrefix(ticker, term) && !added[ticker] {
			suggestions = append(suggestions, ticker)
			added[ticker] = true
		}
	}

	if len(suggestions) < MaxSuggestions {
		for _, ticker := range sortedTickers {
			if len(suggestions) >= MaxSuggestions {
				break
			}
			if strings.Contains(ticker, term) && !added[ticker] {
				suggestions = append(suggestions, ticker)
				added[ticker] = true
			}
		}
	}

	return suggestions
}
