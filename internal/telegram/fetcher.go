package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"listing-site-backend/internal/media"
)

// FileLocator resolves a transport file id into a download URL.
type FileLocator interface {
	GetFileDirectURL(fileID string) (string, error)
}

var _ media.Fetcher = (*Fetcher)(nil)

// Fetcher downloads files users sent to the bot.
type Fetcher struct {
	files      FileLocator
	httpClient *http.Client
	backoffs   []time.Duration
	log        *zap.Logger
}

// NewFetcher creates a fetcher. With retries above zero failed downloads are
// repeated with exponential backoff starting at one second.
func NewFetcher(files FileLocator, timeout time.Duration, retries int, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	backoffs := make([]time.Duration, 0, max(retries, 0))
	for i := range retries {
		backoffs = append(backoffs, time.Second<<i)
	}
	return &Fetcher{
		files:      files,
		httpClient: &http.Client{Timeout: timeout},
		backoffs:   backoffs,
		log:        log.Named("fetcher"),
	}
}

// Fetch returns content of the file with the given id.
func (f *Fetcher) Fetch(ctx context.Context, fileID string) ([]byte, error) {
	var data []byte
	err := f.retryWithBackoff(ctx, func() error {
		link, err := f.files.GetFileDirectURL(fileID)
		if err != nil {
			return fmt.Errorf("failed to resolve file: %w", err)
		}
		data, err = f.download(ctx, link)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to download file: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}

func (f *Fetcher) retryWithBackoff(ctx context.Context, fn func() error) error {
	attempts := len(f.backoffs) + 1

	var lastErr error
	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}

		f.log.Debug("Retrying download", zap.Int("attempt", i+1), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(f.backoffs[i]):
		}
	}
	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
