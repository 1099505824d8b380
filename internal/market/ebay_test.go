// Copyright (c) 2026 Toniewert. All rights reserved.
// Author: dev@toniewert.app

package market_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toniewert/toniewert/internal/market"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testFetcher(t *testing.T) *market.Fetcher {
	t.Helper()
	return market.NewFetcher(market.FetcherOptions{
		Timeout:       5 * time.Second,
		Retries:       0,
		RatePerSecond: 1000,
	}, testLogger())
}

// padPage inflates a fixture beyond the interstitial size heuristic.
func padPage(markup string) string {
	return "<html><body>" + markup + strings.Repeat("<!-- filler -->", 200) + "</body></html>"
}

const ebayFixture = `
<ul>
  <li class="s-card">
    <div class="s-card__title">Tonie Hexe Lilli Zauberspruch Hörfigur</div>
    <span class="s-card__price">19,99 €</span>
    <a class="s-card__link" href="https://www.ebay.de/itm/Tonie-Hexe/123456789012?hash=abc"></a>
  </li>
  <li class="s-item">
    <div class="s-item__title">Tonie Gruffalo Hörfigur gebraucht</div>
    <span class="s-item__price">15,50 EUR</span>
    <a class="s-item__link" href="https://www.ebay.de/itm/234567890123"></a>
  </li>
  <li class="s-card">
    <div class="s-card__title">Shop on eBay</div>
    <span class="s-card__price">20,00 €</span>
    <a class="s-card__link" href="https://www.ebay.de/itm/345678901234"></a>
  </li>
  <li class="s-card">
    <div class="s-card__title">Tonie ohne Preis</div>
    <a class="s-card__link" href="https://www.ebay.de/itm/456789012345"></a>
  </li>
  <li class="s-card">
    <div class="s-card__title">Tonie Preisspanne</div>
    <span class="s-card__price">10,00 € bis 20,00 €</span>
    <a class="s-card__link" href="https://www.ebay.de/itm/567890123456"></a>
  </li>
</ul>`

/*
TestEbayAdapter_Fetch parses both card markup generations, skips the
placeholder card and rejects unparseable prices.
*/
func TestEbayAdapter_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "/sch/i.html", request.URL.Path)
		assert.Equal(t, "1", request.URL.Query().Get("LH_Sold"))
		_, _ = writer.Write([]byte(padPage(ebayFixture)))
	}))
	defer server.Close()

	adapter := market.NewEbayAdapter(testFetcher(t), market.EbayOptions{
		MinPriceEUR:    3.0,
		RawMaxPriceEUR: 500.0,
		BaseURL:        server.URL,
	}, testLogger())

	listings, err := adapter.Fetch(context.Background(), "hexe lilli tonie", 10)
	require.NoError(t, err)

	// 1. Two parseable cards survive: placeholder, missing price and
	//    price range are skipped.
	require.Len(t, listings, 2)

	// 2. Card fields are normalized.
	first := listings[0]
	assert.Equal(t, market.SourceEbaySold, first.Source)
	assert.Equal(t, "Tonie Hexe Lilli Zauberspruch Hörfigur", first.Title)
	assert.InDelta(t, 19.99, first.PriceEUR, 0.001)
	assert.Equal(t, "https://www.ebay.de/itm/123456789012", first.URL)
	require.NotNil(t, first.SoldAt)

	second := listings[1]
	assert.InDelta(t, 15.50, second.PriceEUR, 0.001)
	assert.Equal(t, "https://www.ebay.de/itm/234567890123", second.URL)
}

/*
TestEbayAdapter_FetchMaxItems honors the item cap.
*/
func TestEbayAdapter_FetchMaxItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(padPage(ebayFixture)))
	}))
	defer server.Close()

	adapter := market.NewEbayAdapter(testFetcher(t), market.EbayOptions{
		MinPriceEUR:    3.0,
		RawMaxPriceEUR: 500.0,
		BaseURL:        server.URL,
	}, testLogger())

	listings, err := adapter.Fetch(context.Background(), "tonie", 1)
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

/*
TestEbayAdapter_BlockedPage treats an interstitial as a fetch failure.
*/
func TestEbayAdapter_BlockedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte("<html>Pardon our interruption</html>"))
	}))
	defer server.Close()

	adapter := market.NewEbayAdapter(testFetcher(t), market.EbayOptions{
		MinPriceEUR:    3.0,
		RawMaxPriceEUR: 500.0,
		BaseURL:        server.URL,
	}, testLogger())

	_, err := adapter.Fetch(context.Background(), "tonie", 10)
	assert.Error(t, err)
}

/*
TestFetchQueries_MergesAndStopsEarly fans out over queries, skips
failing ones and stops once enough unique listings are gathered.
*/
func TestFetchQueries_MergesAndStopsEarly(t *testing.T) {
	fake := &fakeAdapter{
		source: market.SourceEbaySold,
		pages: map[string][]market.Listing{
			"q1": {
				{Title: "Tonie A", PriceEUR: 10, URL: "https://www.ebay.de/itm/111111111111"},
				{Title: "Tonie B", PriceEUR: 12, URL: "https://www.ebay.de/itm/222222222222"},
			},
			"q2": {
				// Duplicate of q1 plus one new row.
				{Title: "Tonie A", PriceEUR: 10, URL: "https://www.ebay.de/itm/111111111111"},
				{Title: "Tonie C", PriceEUR: 14, URL: "https://www.ebay.de/itm/333333333333"},
			},
			"q4": {
				{Title: "Tonie D", PriceEUR: 16, URL: "https://www.ebay.de/itm/444444444444"},
			},
		},
	}

	listings := market.FetchQueries(context.Background(), fake, []string{"q1", "q2", "q3", "q4"}, 3, testLogger())

	// q3 errors and is skipped; the cap stops before q4 runs.
	require.Len(t, listings, 3)
	assert.NotContains(t, fake.calls, "q4")
}

type fakeAdapter struct {
	source market.Source
	pages  map[string][]market.Listing
	calls  []string
}

func (adapter *fakeAdapter) Source() market.Source { return adapter.source }

func (adapter *fakeAdapter) Fetch(_ context.Context, query string, _ int) ([]market.Listing, error) {
	adapter.calls = append(adapter.calls, query)
	page, found := adapter.pages[query]
	if !found {
		return nil, assert.AnError
	}
	return page, nil
}
