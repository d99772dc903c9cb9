package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchBrand(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		keywords []string
		strategy Strategy
		want     string
		ok       bool
	}{
		{"start prefix", "acme widget", []string{"acme"}, StrategyStart, "acme", true},
		{"start not prefix", "super acme widget", []string{"acme"}, StrategyStart, "", false},
		{"first two normalizes spaces", "acme   pro drill", []string{"acme pro"}, StrategyFirstTwo, "acme pro", true},
		{"start misses extra spaces", "acme   pro drill", []string{"acme pro"}, StrategyStart, "", false},
		{"first two ignores third word", "big tool acme", []string{"acme"}, StrategyFirstTwo, "", false},
		{"anywhere substring", "big tool acme", []string{"acme"}, StrategyAnywhere, "acme", true},
		{"first keyword wins", "acme bolt widget", []string{"bolt", "acme"}, StrategyAnywhere, "bolt", true},
		{"empty keywords", "acme widget", nil, StrategyAnywhere, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchBrand(tt.title, tt.keywords, tt.strategy)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyMatch(t *testing.T) {
	s, ok := ClassifyMatch("acme widget", "acme")
	assert.True(t, ok)
	assert.Equal(t, StrategyStart, s)

	s, ok = ClassifyMatch("acme  pro widget", "acme pro")
	assert.True(t, ok)
	assert.Equal(t, StrategyFirstTwo, s)

	s, ok = ClassifyMatch("the acme widget", "acme")
	assert.True(t, ok)
	assert.Equal(t, StrategyAnywhere, s)

	_, ok = ClassifyMatch("other gadget", "acme")
	assert.False(t, ok)
}

func TestMatcherConvergesToMajority(t *testing.T) {
	m := NewMatcher()
	assert.Equal(t, StrategyFirstTwo, m.Current())

	for i := 0; i < 8; i++ {
		m.Observe("acme widget", "acme")
	}
	m.Observe("big tool acme", "acme")
	m.Observe("the acme set", "acme")

	assert.Equal(t, StrategyStart, m.Learn())
	assert.Equal(t, map[Strategy]int{StrategyStart: 8, StrategyFirstTwo: 0, StrategyAnywhere: 2}, m.Counts())
}

func TestMatcherKeepsDefaultWithoutMatches(t *testing.T) {
	m := NewMatcher()
	assert.Equal(t, DefaultStrategy, m.Learn())
}

func TestMatcherTiePrecedence(t *testing.T) {
	m := NewMatcher()
	m.Observe("the acme set", "acme")
	m.Observe("acme widget", "acme")
	assert.Equal(t, StrategyStart, m.Learn())

	m = NewMatcher()
	m.Observe("the acme pro set", "acme pro")
	m.Observe("acme  pro", "acme pro")
	assert.Equal(t, StrategyFirstTwo, m.Learn())
}

func TestMatcherNeverDecays(t *testing.T) {
	m := NewMatcher()
	for i := 0; i < 3; i++ {
		m.Observe("the acme set", "acme")
	}
	assert.Equal(t, StrategyAnywhere, m.Learn())

	m.Observe("acme widget", "acme")
	m.Observe("acme widget", "acme")
	assert.Equal(t, StrategyAnywhere, m.Learn())
}
