// Package feed downloads the published sales sheet.
package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andresuchdata/salesreport/internal/config"
	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/ingest"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 30 * time.Second

// Client fetches the published CSV export of the sales sheet.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(cfg config.FeedConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether a feed URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.url != ""
}

// Fetch downloads the feed and returns one record per data row, keyed by
// the header row. An empty feed is an error.
func (c *Client) Fetch(ctx context.Context) ([]map[string]string, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: feed url", domain.ErrSourceDisabled)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrRemoteFetch, err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: unexpected status %d", domain.ErrRemoteFetch, resp.StatusCode)
	}

	// The decode error carries ErrReadFailure; only ErrRemoteFetch stays matchable.
	grid, err := ingest.DecodeCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRemoteFetch, err)
	}

	records := ingest.Records(grid)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: feed returned no rows", domain.ErrRemoteFetch)
	}

	log.Debug().Int("records", len(records)).Msg("feed: fetched records")
	return records, nil
}
