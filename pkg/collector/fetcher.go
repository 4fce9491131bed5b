package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrAuth        = errors.New("raw data source rejected the credentials")
	ErrNoData      = errors.New("no raw data for the requested day")
	ErrFetchFailed = errors.New("raw data fetch failed")
)

// Upper bound on one day of raw production data.
const maxBodySize = 32 << 20

// Fetcher retrieves the raw production export of one day.
type Fetcher interface {
	FetchDay(ctx context.Context, day time.Time) ([]byte, error)
}

// HTTPFetcher downloads a day from URLTemplate, where {date} is replaced
// by the day formatted as YYYY-MM-DD.
type HTTPFetcher struct {
	URLTemplate string
	Token       string
	Client      *http.Client
}

func (f *HTTPFetcher) FetchDay(ctx context.Context, day time.Time) ([]byte, error) {
	url := strings.ReplaceAll(f.URLTemplate, "{date}", day.Format("2006-01-02"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrAuth
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNoData
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoData
	}
	return data, nil
}
