package extract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// HTTPFetcher fetches uploaded documents from blob storage by URL.
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *slog.Logger
}

func NewHTTPFetcher(timeout time.Duration, maxBytes int64, logger *slog.Logger) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("fetch.failed", "error", err)
		return nil, fmt.Errorf("fetch document: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Warn("fetch.body_close_error", "error", cerr)
		}
	}()

	if resp.StatusCode/100 != 2 {
		f.logger.Error("fetch.bad_status", "status", resp.StatusCode)
		return nil, fmt.Errorf("fetch document: status %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("document exceeds %d byte limit", f.maxBytes)
	}

	f.logger.Info("fetch.ok", "bytes", len(data), "elapsed_ms", time.Since(start).Milliseconds())
	return data, nil
}
