package crawler

import (
	"regexp"
	"strings"
)

var brandSeparators = regexp.MustCompile(`[,\s]+`)

// ParseBrandKeywords splits a comma or whitespace separated brand list.
func ParseBrandKeywords(raw string) []string {
	return normalizeKeywords(brandSeparators.Split(raw, -1))
}

// ParseProductKeywords splits a newline separated product list. A product
// keyword may contain spaces.
func ParseProductKeywords(raw string) []string {
	return normalizeKeywords(strings.Split(raw, "\n"))
}

// normalizeKeywords lower-cases and trims, dropping blanks and duplicates
// while keeping first-seen order.
func normalizeKeywords(parts []string) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, p := range parts {
		kw := strings.ToLower(strings.TrimSpace(p))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// keywordSet tracks which keywords have not matched yet, keeping input order.
type keywordSet struct {
	order   []string
	pending map[string]struct{}
}

func newKeywordSet(keywords []string) *keywordSet {
	ks := &keywordSet{order: keywords, pending: make(map[string]struct{}, len(keywords))}
	for _, kw := range keywords {
		ks.pending[kw] = struct{}{}
	}
	return ks
}

func (k *keywordSet) discard(kw string) { delete(k.pending, kw) }

func (k *keywordSet) remaining() []string {
	out := []string{}
	for _, kw := range k.order {
		if _, ok := k.pending[kw]; ok {
			out = append(out, kw)
		}
	}
	return out
}
