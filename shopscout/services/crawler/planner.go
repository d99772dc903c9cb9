package crawler

import (
	"shopscout/shopscout/utils/types"
	"sort"
)

// PagePlan is the set of listing pages one run visits, with the brands that
// are expected on each.
type PagePlan struct {
	Pages  []int
	Brands map[int][]string
}

// BuildPlan resolves the expected pages of every brand from the cache (full
// range when unseen) and inverts them into an ascending page sequence. A run
// with only product keywords scans the full range; a run with no keywords at
// all visits nothing.
func BuildPlan(req types.CrawlRequest, cache DiscoveryCache) PagePlan {
	plan := PagePlan{Brands: map[int][]string{}}

	fullRange := func() []int {
		pages := make([]int, 0, req.PageLimit)
		for p := 1; p <= req.PageLimit; p++ {
			pages = append(pages, p)
		}
		return pages
	}

	for _, brand := range req.Brands {
		pages, ok := cache.Pages(brand)
		if !ok {
			pages = fullRange()
		}
		for _, p := range pages {
			plan.Brands[p] = append(plan.Brands[p], brand)
		}
	}

	if len(req.Brands) == 0 && len(req.Products) > 0 {
		for _, p := range fullRange() {
			plan.Brands[p] = []string{}
		}
	}

	plan.Pages = make([]int, 0, len(plan.Brands))
	for p := range plan.Brands {
		plan.Pages = append(plan.Pages, p)
	}
	sort.Ints(plan.Pages)
	return plan
}
