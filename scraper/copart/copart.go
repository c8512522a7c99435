package copart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"copart-organizer/config"
	"copart-organizer/utils"
)

const (
	lotPageURL     = "https://www.copart.com/lot/%s"
	lotDetailsAPI  = "https://www.copart.com/public/data/lotdetails/solr/%s"
	userAgent      = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"
	settleDelay    = 2 * time.Second
)

// blockMarkers are body-text fragments that mean the source served a
// CAPTCHA or denial page instead of a lot page.
var blockMarkers = []string{"captcha", "CAPTCHA", "Access Denied", "access denied"}

// Fetcher retrieves raw lot documents from the source site. It is the opaque
// I/O boundary in front of the extractor: every failure comes back as a
// *FetchError, and a success is the page HTML (or the structured endpoint's
// JSON payload) exactly as served.
type Fetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig
	client *http.Client

	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

// New creates a Fetcher with a shared headless-browser allocator.
func New(cfg *config.Config, logger *utils.Logger) *Fetcher {
	chromeBin := findChromeBinary(cfg.ChromeBin)
	if chromeBin != "" {
		logger.Info("[copart] using browser binary: %s", chromeBin)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	silentCtx, cancelSilent := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	allocCtx = silentCtx

	return &Fetcher{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		client:   &http.Client{Timeout: time.Duration(cfg.FetchTimeoutSec) * time.Second},
		allocCtx: allocCtx,
		cancelAlloc: func() {
			cancelSilent()
			cancel()
		},
	}
}

// Fetch navigates the headless browser to the lot page and returns its HTML.
func (f *Fetcher) Fetch(ctx context.Context, lotNumber string) (string, error) {
	pageCtx, cancel := chromedp.NewContext(f.allocCtx)
	defer cancel()

	timeout := time.Duration(f.cfg.FetchTimeoutSec) * time.Second
	pageCtx, cancelTimeout := context.WithTimeout(pageCtx, timeout)
	defer cancelTimeout()

	// Honor cancellation from the caller's request context.
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-pageCtx.Done():
		}
	}()

	url := fmt.Sprintf(lotPageURL, lotNumber)
	f.logger.Info("[copart] navigating to %s", url)

	var bodyText, html string
	err := chromedp.Run(pageCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(settleDelay),
		chromedp.Evaluate(`document.body ? document.body.innerText : ''`, &bodyText),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", f.wrapNavigationError(lotNumber, err)
	}

	for _, marker := range blockMarkers {
		if strings.Contains(bodyText, marker) {
			return "", &FetchError{Kind: ErrBlocked, LotNumber: lotNumber,
				Err: fmt.Errorf("page contains %q", marker)}
		}
	}

	f.logger.Debug("[copart] lot %s: received %d bytes of HTML", lotNumber, len(html))
	return html, nil
}

// FetchJSON hits the structured lot-details endpoint directly. Used as the
// fallback when the page no longer embeds an extractable object.
func (f *Fetcher) FetchJSON(ctx context.Context, lotNumber string) ([]byte, error) {
	url := fmt.Sprintf(lotDetailsAPI, lotNumber)

	var payload []byte
	err := f.retry.Do("lot-details-api", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		req.Header.Set("Referer", "https://www.copart.com/")
		req.Header.Set("Origin", "https://www.copart.com")

		resp, err := f.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return &FetchError{Kind: ErrNotFound, LotNumber: lotNumber,
				Err: fmt.Errorf("endpoint returned 404")}
		case resp.StatusCode == http.StatusForbidden:
			return &FetchError{Kind: ErrBlocked, LotNumber: lotNumber,
				Err: fmt.Errorf("endpoint returned 403")}
		case resp.StatusCode >= 400:
			return fmt.Errorf("endpoint returned %d", resp.StatusCode)
		}

		payload, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, fe
		}
		return nil, f.wrapNavigationError(lotNumber, err)
	}
	return payload, nil
}

// Close tears down the shared browser allocator.
func (f *Fetcher) Close() {
	f.cancelAlloc()
}

func (f *Fetcher) wrapNavigationError(lotNumber string, err error) *FetchError {
	kind := ErrUnknown
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "Timeout"):
		kind = ErrTimeout
	case strings.Contains(msg, "net::ERR_CONNECTION_REFUSED"),
		strings.Contains(msg, "net::ERR_NAME_NOT_RESOLVED"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"):
		kind = ErrNetwork
	case strings.Contains(msg, "404"):
		kind = ErrNotFound
	case strings.Contains(msg, "403"), strings.Contains(msg, "blocked"):
		kind = ErrBlocked
	}
	return &FetchError{Kind: kind, LotNumber: lotNumber, Err: err}
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the
// configured path.
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
