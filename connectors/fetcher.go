package connectors

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/alexmarroig/Carpremiumsell/config"
)

// Fetcher retrieves one page of content. Two implementations exist: a plain
// HTTP client and a headless-browser renderer for JS-heavy pages. Which one a
// run uses is decided by configuration, not by the connector.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// NewFetcher selects the fetch strategy declared in the config.
func NewFetcher(cfg *config.Config) Fetcher {
	if cfg.FetchStrategy == "headless" {
		return NewHeadlessFetcher(cfg)
	}
	return NewHTTPFetcher(cfg)
}

// HTTPFetcher is the default strategy: a plain HTTP GET with the configured
// user agent and a per-call timeout.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates an HTTPFetcher from the app config.
func NewHTTPFetcher(cfg *config.Config) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		},
		userAgent: cfg.UserAgent,
	}
}

// Fetch performs the GET and returns the response body as a string.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch: build request for %q: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch: %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch: read body of %s: %w", url, err)
	}
	return string(body), nil
}

// HeadlessFetcher renders pages in headless Chrome before extracting HTML.
// Used for sources that assemble listings client-side. Images, media and
// fonts are disabled to keep page loads cheap.
type HeadlessFetcher struct {
	cfg       *config.Config
	chromeBin string
}

// NewHeadlessFetcher creates a HeadlessFetcher, locating the browser binary.
func NewHeadlessFetcher(cfg *config.Config) *HeadlessFetcher {
	return &HeadlessFetcher{
		cfg:       cfg,
		chromeBin: findChromeBinary(cfg.ChromeBin),
	}
}

// Fetch navigates to the URL and returns the rendered document HTML.
func (f *HeadlessFetcher) Fetch(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(f.cfg.UserAgent),
	)
	if f.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(f.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx,
		time.Duration(f.cfg.RequestTimeoutMs)*time.Millisecond*4)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("headless fetch: %s: %w", url, err)
	}
	return html, nil
}

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
