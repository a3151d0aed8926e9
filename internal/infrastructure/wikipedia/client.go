// Package wikipedia talks to the Wikimedia title search and MediaWiki extract APIs.
package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/wiki"
	"github.com/quanta-kt/CosmicDiversBot/internal/infrastructure/metrics"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

const (
	endpointSearch  = "search"
	endpointExtract = "extract"

	extractChars = 1000
	userAgent    = "CosmicDiversBot/1.0 (https://github.com/quanta-kt/CosmicDiversBot)"
)

// ClientConfig configures the encyclopedia client.
type ClientConfig struct {
	SearchURL      string
	APIURL         string
	Timeout        time.Duration
	MaxFailures    uint32
	BreakerTimeout time.Duration
}

// Client implements wiki.API over HTTP.
type Client struct {
	cfg     ClientConfig
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a client sharing one HTTP connection pool for both endpoints.
func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}

	log = log.With().Str("component", "wikipedia").Logger()

	httpClient := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wikipedia",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return &Client{cfg: cfg, http: httpClient, breaker: breaker, log: log}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

type searchResponse struct {
	Pages []searchPage `json:"pages"`
}

type searchPage struct {
	ID          int64      `json:"id"`
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Thumbnail   *thumbnail `json:"thumbnail"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type extractResponse struct {
	Query *struct {
		Pages map[string]struct {
			PageID  int64  `json:"pageid"`
			Extract string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

// Search runs a title search and returns at most limit candidates in API order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]wiki.Stub, error) {
	var res searchResponse
	err := c.get(ctx, endpointSearch, c.cfg.SearchURL, map[string]string{
		"q":     query,
		"limit": strconv.Itoa(limit),
	}, &res)
	if err != nil {
		return nil, err
	}

	stubs := make([]wiki.Stub, 0, len(res.Pages))
	for _, p := range res.Pages {
		stub := wiki.Stub{ID: p.ID, Key: p.Key, Title: p.Title}
		if p.Description != nil {
			stub.Description = *p.Description
		}
		if p.Thumbnail != nil {
			stub.ThumbnailURL = p.Thumbnail.URL
		}
		stubs = append(stubs, stub)
	}
	if limit > 0 && len(stubs) > limit {
		stubs = stubs[:limit]
	}

	c.log.Debug().Str("query", query).Int("result_count", len(stubs)).Msg("title search completed")
	return stubs, nil
}

// PageExtract returns the plain-text lead of a page, or "" when the page has none.
func (c *Client) PageExtract(ctx context.Context, pageID int64) (string, error) {
	id := strconv.FormatInt(pageID, 10)

	var res extractResponse
	err := c.get(ctx, endpointExtract, c.cfg.APIURL, map[string]string{
		"action":          "query",
		"format":          "json",
		"prop":            "extracts",
		"exchars":         strconv.Itoa(extractChars),
		"explaintext":     "1",
		"exsectionformat": "plain",
		"pageids":         id,
	}, &res)
	if err != nil {
		return "", err
	}
	if res.Query == nil {
		return "", platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"extract response has no query object", nil, map[string]any{"page_id": pageID})
	}

	page, ok := res.Query.Pages[id]
	if !ok {
		return "", nil
	}
	return page.Extract, nil
}

func (c *Client) get(ctx context.Context, endpoint, url string, params map[string]string, result any) error {
	start := time.Now()
	status := 0
	defer func() {
		metrics.RecordWikipediaRequest(endpoint, status, time.Since(start))
	}()

	_, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(result).
			ForceContentType("application/json").
			Get(url)
		if resp != nil {
			status = resp.StatusCode()
		}
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("%s request returned status %d", endpoint, resp.StatusCode())
		}
		return nil, nil
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.log.Warn().Str("endpoint", endpoint).Msg("wikipedia circuit breaker is open, skipping")
	} else {
		c.log.Error().Err(err).Str("endpoint", endpoint).Int("status", status).Msg("wikipedia request failed")
	}
	return platformerrors.NewErrorWithContext(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
		"wikipedia "+endpoint+" failed", err, map[string]any{"endpoint": endpoint, "status": status})
}
