package crawler

import "strings"

// Strategy is a heuristic for deciding whether a listing title belongs to a
// brand keyword.
type Strategy string

const (
	StrategyStart    Strategy = "start"
	StrategyFirstTwo Strategy = "first_two"
	StrategyAnywhere Strategy = "anywhere"
)

// strategyPrecedence is both the classification order and the tie-break order.
var strategyPrecedence = []Strategy{StrategyStart, StrategyFirstTwo, StrategyAnywhere}

// DefaultStrategy is active until the first page has produced a brand match.
const DefaultStrategy = StrategyFirstTwo

// MatchBrand applies exactly one strategy and returns the first keyword, in
// keyword order, that it accepts.
func MatchBrand(title string, keywords []string, s Strategy) (string, bool) {
	for _, kw := range keywords {
		if satisfies(title, kw, s) {
			return kw, true
		}
	}
	return "", false
}

// ClassifyMatch returns the first pattern, in precedence order, that the
// title satisfies for kw, independently of the strategy that produced the match.
func ClassifyMatch(title, kw string) (Strategy, bool) {
	for _, s := range strategyPrecedence {
		if satisfies(title, kw, s) {
			return s, true
		}
	}
	return "", false
}

func satisfies(title, kw string, s Strategy) bool {
	if kw == "" {
		return false
	}
	switch s {
	case StrategyStart:
		return strings.HasPrefix(title, kw)
	case StrategyFirstTwo:
		return strings.HasPrefix(firstTwoWords(title), kw)
	case StrategyAnywhere:
		return strings.Contains(title, kw)
	}
	return false
}

func firstTwoWords(title string) string {
	words := strings.Fields(title)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}

// Matcher is the per-run adaptive brand matcher. It is owned by the listing
// scanner and is not safe for concurrent use.
type Matcher struct {
	counts  map[Strategy]int
	current Strategy
}

func NewMatcher() *Matcher {
	return &Matcher{
		counts:  map[Strategy]int{},
		current: DefaultStrategy,
	}
}

func (m *Matcher) Current() Strategy { return m.current }

// Counts returns a copy of the per-pattern counters.
func (m *Matcher) Counts() map[Strategy]int {
	out := make(map[Strategy]int, len(strategyPrecedence))
	for _, s := range strategyPrecedence {
		out[s] = m.counts[s]
	}
	return out
}

// Match runs the active strategy over title.
func (m *Matcher) Match(title string, keywords []string) (string, bool) {
	return MatchBrand(title, keywords, m.current)
}

// Observe records which pattern an accepted match satisfies.
func (m *Matcher) Observe(title, kw string) {
	if s, ok := ClassifyMatch(title, kw); ok {
		m.counts[s]++
	}
}

// Learn switches to the most frequent pattern once any match was observed.
// Counters never decay, so early pages weigh as much as late ones.
func (m *Matcher) Learn() Strategy {
	best, bestCount := m.current, 0
	for _, s := range strategyPrecedence {
		if m.counts[s] > bestCount {
			best, bestCount = s, m.counts[s]
		}
	}
	if bestCount > 0 {
		m.current = best
	}
	return m.current
}
