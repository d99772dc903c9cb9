package crawler

import (
	"context"
	"shopscout/shopscout/utils/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPlanColdCache(t *testing.T) {
	plan := BuildPlan(types.CrawlRequest{PageLimit: 3, Brands: []string{"acme"}}, DiscoveryCache{})
	assert.Equal(t, []int{1, 2, 3}, plan.Pages)
	assert.Equal(t, []string{"acme"}, plan.Brands[2])
}

func TestBuildPlanUsesCachedPages(t *testing.T) {
	cache := DiscoveryCache{"acme": {2, 5}, "bolt": {5}}
	plan := BuildPlan(types.CrawlRequest{PageLimit: 3, Brands: []string{"acme", "bolt", "zed"}}, cache)

	assert.Equal(t, []int{1, 2, 3, 5}, plan.Pages)
	assert.Equal(t, []string{"acme", "bolt"}, plan.Brands[5])
	assert.Equal(t, []string{"zed"}, plan.Brands[1])
	assert.Equal(t, []string{"acme", "zed"}, plan.Brands[2])
}

func TestBuildPlanProductsOnly(t *testing.T) {
	plan := BuildPlan(types.CrawlRequest{PageLimit: 2, Products: []string{"garden hose"}}, DiscoveryCache{"acme": {9}})
	assert.Equal(t, []int{1, 2}, plan.Pages)
}

func TestBuildPlanNoKeywords(t *testing.T) {
	plan := BuildPlan(types.CrawlRequest{PageLimit: 5}, DiscoveryCache{})
	assert.Empty(t, plan.Pages)
}

func TestMergePages(t *testing.T) {
	assert.Equal(t, []int{1, 2, 4}, MergePages([]int{4, 1}, []int{2, 1}))
	assert.Equal(t, MergePages([]int{3}, []int{1, 2}), MergePages([]int{1, 2}, []int{3}))
	assert.Equal(t, []int{}, MergePages(nil, nil))
}

func TestCacheMergeIdempotent(t *testing.T) {
	observed := map[string]map[int]struct{}{
		"acme":  {1: {}, 3: {}},
		"other": {1: {}},
	}
	once := DiscoveryCache{"acme": {2}}
	once.Merge(observed)

	twice := once.Clone()
	twice.Merge(observed)

	assert.Equal(t, DiscoveryCache{"acme": {1, 2, 3}, "other": {1}}, once)
	assert.Equal(t, once, twice)
}

func TestCacheNormalize(t *testing.T) {
	c := DiscoveryCache{"acme": {3, 1, 3, 0, -2}}.Normalize()
	assert.Equal(t, []int{1, 3}, c["acme"])
}

func TestMemoryCacheStoreCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryCacheStore(DiscoveryCache{"acme": {1}})

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	loaded["acme"][0] = 7

	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, again["acme"])
}

func TestParseKeywords(t *testing.T) {
	assert.Equal(t, []string{"acme", "bolt", "zed"}, ParseBrandKeywords(" Acme, bolt\tACME  zed,,"))
	assert.Equal(t, []string{"garden hose", "drill"}, ParseProductKeywords("Garden Hose\n\n drill \ngarden hose"))
	assert.Equal(t, []string{}, ParseBrandKeywords(""))
}
