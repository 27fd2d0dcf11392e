package screenerapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

type fakeScreener struct {
	received eventmodels.ScreeningRequest
	err      error
}

func (s *fakeScreener) Screen(ctx context.Context, req eventmodels.ScreeningRequest) (*eventmodels.ScreeningResult, error) {
	s.received = req
	if s.err != nil {
		return nil, s.err
	}

	if err := req.Validate(eventmodels.DefaultMaxSymbols); err != nil {
		return nil, err
	}

	result := eventmodels.NewScreeningResult(req, time.Now())
	result.CompletedAt = time.Now()
	return result, nil
}

type fakeNews struct {
	received eventmodels.NewsRequest
	articles []eventmodels.NewsArticle
	err      error
}

func (n *fakeNews) FetchNews(ctx context.Context, req eventmodels.NewsRequest) ([]eventmodels.NewsArticle, error) {
	n.received = req
	return n.articles, n.err
}

type fakeLatest struct {
	result *eventmodels.ScreeningResult
}

func (l *fakeLatest) Latest() (*eventmodels.ScreeningResult, bool) {
	return l.result, l.result != nil
}

func newDefaults() eventmodels.ScreeningRequest {
	return eventmodels.ScreeningRequest{
		Symbols:                  []eventmodels.StockSymbol{"AAPL", "MSFT"},
		MinDTE:                   15,
		MaxDTE:                   45,
		MinVolume:                10,
		MinOpenInterest:          10,
		MinAnnualizedReturn:      20,
		MinAssignmentProbability: 10,
		MaxAssignmentProbability: 30,
		RequireOutOfTheMoney:     true,
		SortBy:                   eventmodels.SortByAnnualizedReturn,
		SortOrder:                eventmodels.SortOrderDescending,
		MaxResults:               50,
	}
}

func TestScreenEndpoint(t *testing.T) {
	t.Run("POST merges the body over the defaults", func(t *testing.T) {
		// arrange
		screener := &fakeScreener{}
		router := NewRouter(Options{Screener: screener, Defaults: newDefaults()})
		body := `{"symbols":["tsla"],"min_dte":7,"max_dte":30}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", strings.NewReader(body))
		rec := httptest.NewRecorder()

		// act
		router.ServeHTTP(rec, req)

		// assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []eventmodels.StockSymbol{"TSLA"}, screener.received.Symbols)
		assert.Equal(t, 7, screener.received.MinDTE)
		assert.Equal(t, 30, screener.received.MaxDTE)
		assert.Equal(t, 10.0, screener.received.MinAssignmentProbability)

		var result eventmodels.ScreeningResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, []eventmodels.StockSymbol{"TSLA"}, result.Request.Symbols)
	})

	t.Run("GET reads the query string", func(t *testing.T) {
		screener := &fakeScreener{}
		router := NewRouter(Options{Screener: screener, Defaults: newDefaults()})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/screen?symbols=spy&symbols=qqq&sort_by=premium", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []eventmodels.StockSymbol{"SPY", "QQQ"}, screener.received.Symbols)
		assert.Equal(t, eventmodels.SortByPremium, screener.received.SortBy)
	})

	t.Run("empty POST body screens the defaults", func(t *testing.T) {
		screener := &fakeScreener{}
		router := NewRouter(Options{Screener: screener, Defaults: newDefaults()})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, newDefaults().Symbols, screener.received.Symbols)
	})

	t.Run("malformed JSON is a bad request", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}, Defaults: newDefaults()})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "parser", resp.Type)
	})

	t.Run("invalid window is a bad request", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}, Defaults: newDefaults()})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", strings.NewReader(`{"min_dte":40,"max_dte":10}`))
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "validation", resp.Type)
	})

	t.Run("screening failures are internal errors", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{err: fmt.Errorf("boom")}, Defaults: newDefaults()})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/screen", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("other methods are rejected", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}, Defaults: newDefaults()})
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/screen", nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "method_not_allowed", resp.Type)
	})

	t.Run("POST on the latest result is rejected", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}, Latest: &fakeLatest{}})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/screen/latest", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("unknown routes return the error envelope", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "not_found", resp.Type)
	})
}

func TestLatestEndpoint(t *testing.T) {
	t.Run("404 before any run", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}, Latest: &fakeLatest{}})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/screen/latest", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)

		var resp errorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "not_found", resp.Type)
	})

	t.Run("returns the stored result", func(t *testing.T) {
		stored := eventmodels.NewScreeningResult(newDefaults(), time.Now())
		router := NewRouter(Options{Screener: &fakeScreener{}, Latest: &fakeLatest{result: stored}})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/screen/latest", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var result eventmodels.ScreeningResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Equal(t, stored.ID, result.ID)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	router := NewRouter(Options{Screener: &fakeScreener{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "api_request_duration_seconds")
}

func TestNewsEndpoint(t *testing.T) {
	now := time.Date(2024, time.March, 8, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("defaults limit and age", func(t *testing.T) {
		// arrange
		news := &fakeNews{articles: []eventmodels.NewsArticle{{ID: "1", Title: "Apple beats estimates", Source: "Example Wire"}}}
		router := NewRouter(Options{Screener: &fakeScreener{}, News: news, Clock: clock})
		rec := httptest.NewRecorder()

		// act
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news/aapl", nil))

		// assert
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, eventmodels.StockSymbol("AAPL"), news.received.Symbol)
		assert.Equal(t, eventmodels.DefaultNewsLimit, news.received.Limit)
		assert.Equal(t, eventmodels.DefaultNewsMaxAgeDays, news.received.MaxAgeDays)
		assert.Equal(t, now, news.received.Now)

		var resp eventmodels.NewsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, eventmodels.StockSymbol("AAPL"), resp.Symbol)
		require.Len(t, resp.News, 1)
		assert.Equal(t, "Apple beats estimates", resp.News[0].Title)
	})

	t.Run("reads limit and max_age_days from the query", func(t *testing.T) {
		news := &fakeNews{}
		router := NewRouter(Options{Screener: &fakeScreener{}, News: news, Clock: clock})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news/MSFT?limit=3&max_age_days=2", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, news.received.Limit)
		assert.Equal(t, 2, news.received.MaxAgeDays)
	})

	t.Run("out of range limit is a validation error", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}, News: &fakeNews{}, Clock: clock})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news/MSFT?limit=0", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failure is a bad gateway", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}, News: &fakeNews{err: fmt.Errorf("down")}, Clock: clock})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news/MSFT", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("unavailable without a news provider", func(t *testing.T) {
		router := NewRouter(Options{Screener: &fakeScreener{}})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/news/MSFT", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
