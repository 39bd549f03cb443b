package crawler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/listing-watcher/internal/domain"
	"github.com/user/listing-watcher/internal/monitoring"
	"github.com/user/listing-watcher/internal/renderer"
)

// fakeRenderer serves canned HTML per page number and records every fetch.
type fakeRenderer struct {
	pages map[int]string
	errs  map[int]error
	urls  []string
}

func (f *fakeRenderer) Render(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	page := pageOf(url)
	if err := f.errs[page]; err != nil {
		return "", err
	}
	return f.pages[page], nil
}

func pageOf(url string) int {
	idx := strings.Index(url, "&page=")
	if idx < 0 {
		return 1
	}
	page, err := strconv.Atoi(url[idx+len("&page="):])
	if err != nil {
		return 1
	}
	return page
}

// fakeExtractor maps the canned HTML back to listings.
type fakeExtractor struct {
	byHTML map[string][]domain.Listing
}

func (f *fakeExtractor) Extract(html string) ([]domain.Listing, error) {
	return f.byHTML[html], nil
}

func listingsWithIDs(ids ...string) []domain.Listing {
	out := make([]domain.Listing, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Listing{ID: id})
	}
	return out
}

func testConfig(maxPages int) domain.SearchConfig {
	return domain.SearchConfig{
		SearchParams: domain.SearchParams{
			Radius: 5, MinArea: 60, MaxPrice: 1200, DetailedSearch: 1, PetFriendly: 1,
		},
		City:        "vilniuje",
		ListingType: "butu-nuoma",
		MaxPages:    maxPages,
	}
}

func newTestController(r Renderer, e Extractor) (*Controller, *[]time.Duration) {
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	c := NewController(r, e, "https://example.test", 2*time.Second, metrics, zap.NewNop())
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func TestCrawlStopsOnEmptyPage(t *testing.T) {
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	rend := &fakeRenderer{pages: map[int]string{1: "page1", 2: "page2"}}
	extr := &fakeExtractor{byHTML: map[string][]domain.Listing{
		"page1": listingsWithIDs(ids...),
		"page2": nil,
	}}
	c, _ := newTestController(rend, extr)

	got, err := c.Crawl(context.Background(), testConfig(5))
	require.NoError(t, err)
	assert.Len(t, got, 10)
	// Page 2 was empty, so pages 3..5 are never fetched.
	assert.Len(t, rend.urls, 2)
}

func TestCrawlDeduplicatesAcrossPages(t *testing.T) {
	rend := &fakeRenderer{pages: map[int]string{1: "page1", 2: "page2"}}
	extr := &fakeExtractor{byHTML: map[string][]domain.Listing{
		"page1": listingsWithIDs("a", "b"),
		"page2": listingsWithIDs("b", "c"),
	}}
	c, _ := newTestController(rend, extr)

	got, err := c.Crawl(context.Background(), testConfig(2))
	require.NoError(t, err)
	require.Len(t, got, 3)
	// First occurrence wins and first-seen order is preserved.
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestCrawlHardFailureDiscardsPartialResults(t *testing.T) {
	rend := &fakeRenderer{
		pages: map[int]string{1: "page1"},
		errs:  map[int]error{2: renderer.ErrAccessDenied},
	}
	extr := &fakeExtractor{byHTML: map[string][]domain.Listing{
		"page1": listingsWithIDs("a", "b", "c"),
	}}
	c, _ := newTestController(rend, extr)

	got, err := c.Crawl(context.Background(), testConfig(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, renderer.ErrAccessDenied)
	// Page 1 had valid listings, but partial results are discarded.
	assert.Nil(t, got)
}

func TestCrawlSearchURLs(t *testing.T) {
	rend := &fakeRenderer{pages: map[int]string{1: "page1", 2: "page2", 3: "page3"}}
	extr := &fakeExtractor{byHTML: map[string][]domain.Listing{
		"page1": listingsWithIDs("a"),
		"page2": listingsWithIDs("b"),
		"page3": listingsWithIDs("c"),
	}}
	c, _ := newTestController(rend, extr)

	_, err := c.Crawl(context.Background(), testConfig(3))
	require.NoError(t, err)

	require.Len(t, rend.urls, 3)
	base := "https://example.test/butu-nuoma/vilniuje/?FRadius=5&FAreaOverAllMin=60&FPriceMax=1200&detailed_search=1&pet_friendly=1"
	assert.Equal(t, base, rend.urls[0]) // no page param on the first page
	assert.Equal(t, base+"&page=2", rend.urls[1])
	assert.Equal(t, base+"&page=3", rend.urls[2])
}

func TestCrawlPacesBetweenPages(t *testing.T) {
	rend := &fakeRenderer{pages: map[int]string{1: "page1", 2: "page2", 3: "page3"}}
	extr := &fakeExtractor{byHTML: map[string][]domain.Listing{
		"page1": listingsWithIDs("a"),
		"page2": listingsWithIDs("b"),
		"page3": listingsWithIDs("c"),
	}}
	c, sleeps := newTestController(rend, extr)

	_, err := c.Crawl(context.Background(), testConfig(3))
	require.NoError(t, err)

	// Delay after pages 1 and 2, none after the final page.
	require.Len(t, *sleeps, 2)
	assert.Equal(t, 2*time.Second, (*sleeps)[0])
	assert.Equal(t, 2*time.Second, (*sleeps)[1])
}

func TestCrawlSinglePageLimit(t *testing.T) {
	rend := &fakeRenderer{pages: map[int]string{1: "page1"}}
	extr := &fakeExtractor{byHTML: map[string][]domain.Listing{
		"page1": listingsWithIDs("a", "b"),
	}}
	c, sleeps := newTestController(rend, extr)

	got, err := c.Crawl(context.Background(), testConfig(1))
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Len(t, rend.urls, 1)
	assert.Empty(t, *sleeps)
}
