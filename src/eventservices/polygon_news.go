package eventservices

import (
	"context"
	"fmt"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	log "github.com/sirupsen/logrus"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

type NewsProvider interface {
	FetchNews(ctx context.Context, req eventmodels.NewsRequest) ([]eventmodels.NewsArticle, error)
}

// FetchNews lists the newest articles tagged with the symbol, stopping at the
// request limit or the first article older than the cutoff.
func (p *PolygonProvider) FetchNews(ctx context.Context, req eventmodels.NewsRequest) ([]eventmodels.NewsArticle, error) {
	ticker := req.Symbol.String()
	cutoff := models.Millis(req.Cutoff())
	order := models.Desc
	limit := req.Limit

	params := &models.ListTickerNewsParams{
		TickerEQ:        &ticker,
		PublishedUtcGTE: &cutoff,
		Order:           &order,
		Limit:           &limit,
	}

	articles := make([]eventmodels.NewsArticle, 0, req.Limit)

	iter := p.Client.ListTickerNews(ctx, params)
	for iter.Next() {
		article := convertPolygonNews(iter.Item())
		if article.PublishedAt.Before(req.Cutoff()) {
			break
		}

		articles = append(articles, article)
		if len(articles) >= req.Limit {
			break
		}
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("PolygonProvider: failed to list news for %s: %w", req.Symbol, err)
	}

	log.WithContext(ctx).Debugf("PolygonProvider: %s: %d news articles", req.Symbol, len(articles))

	return articles, nil
}

func convertPolygonNews(n models.TickerNews) eventmodels.NewsArticle {
	return eventmodels.NewsArticle{
		ID:          n.ID,
		Title:       n.Title,
		Author:      n.Author,
		Description: n.Description,
		URL:         n.ArticleURL,
		Source:      n.Publisher.Name,
		PublishedAt: time.Time(n.PublishedUTC).UTC(),
		Tickers:     n.Tickers,
	}
}
