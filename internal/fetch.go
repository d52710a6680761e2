package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves the body behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher fetches http(s) URLs with a shared client and reads file://
// URLs from the local disk.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	if u.Scheme == "file" {
		p := u.Path
		if u.Host != "" && u.Host != "localhost" {
			p = u.Host + p
		}
		data, err := os.ReadFile(filepath.FromSlash(p))
		if err != nil {
			return nil, &FetchError{URL: rawURL, Err: err}
		}
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", "petrichor")
	res, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: rawURL, Status: res.StatusCode}
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return body, nil
}

type fetchJob struct {
	url  string
	dest string
}

// fetchAll downloads every job with at most limit requests in flight. The
// first failure cancels the remaining jobs.
func fetchAll(ctx context.Context, f Fetcher, jobs []fetchJob, limit int) error {
	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := f.Fetch(ctx, job.url)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(job.dest), 0o755); err != nil {
				return fmt.Errorf("create asset dir: %w", err)
			}
			if err := os.WriteFile(job.dest, data, 0o644); err != nil {
				return fmt.Errorf("write asset: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
