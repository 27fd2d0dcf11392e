package eventservices

import (
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/assert"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

func TestConvertPolygonNews(t *testing.T) {
	// arrange
	published := time.Date(2024, time.March, 1, 14, 30, 0, 0, time.UTC)
	n := models.TickerNews{
		ID:           "abc",
		Title:        "Apple beats estimates",
		Author:       "Jane Doe",
		ArticleURL:   "https://example.com/apple",
		PublishedUTC: models.Time(published),
		Tickers:      []string{"AAPL"},
	}
	n.Publisher.Name = "Example Wire"

	// act
	article := convertPolygonNews(n)

	// assert
	assert.Equal(t, "abc", article.ID)
	assert.Equal(t, "Apple beats estimates", article.Title)
	assert.Equal(t, "https://example.com/apple", article.URL)
	assert.Equal(t, "Example Wire", article.Source)
	assert.True(t, published.Equal(article.PublishedAt))
	assert.Equal(t, []string{"AAPL"}, article.Tickers)
}

func TestNewsRequestCutoff(t *testing.T) {
	now := time.Date(2024, time.March, 8, 12, 0, 0, 0, time.UTC)
	req := eventmodels.NewsRequest{Symbol: "AAPL", Limit: 10, MaxAgeDays: 7, Now: now}

	assert.Equal(t, time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC), req.Cutoff())
	assert.NoError(t, req.Validate())

	req.Limit = 0
	assert.ErrorIs(t, req.Validate(), eventmodels.ErrInvalidRequest)
}
