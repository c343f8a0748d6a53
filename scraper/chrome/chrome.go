// Package chrome implements scraper.Site on a headless Chrome driven by chromedp.
//
// The whole run happens in a single tab so the signed-in session is shared
// by every page load.
package chrome

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"blackout-stats/config"
	"blackout-stats/scraper"
	"blackout-stats/utils"
)

const (
	emailSelector    = "#page_signin_email"
	passwordSelector = "#page_signin_password"
	submitSelector   = "form.auth-form input[type='submit']"
	signedInSelector = ".header-user-name"
	pagerSelector    = ".competition-week-pager"
	tableSelector    = "table"

	defaultWait = 10 * time.Second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Site drives the contest website.
type Site struct {
	cfg    *config.Config
	logger *utils.Logger
	retry  *utils.RetryConfig

	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	mu       sync.Mutex
	lastLoad time.Time
}

var _ scraper.Site = (*Site)(nil)

// New starts the browser. A browser that cannot start is a fatal scrape error.
func New(cfg *config.Config, logger *utils.Logger) (*Site, error) {
	logger = logger.With("chrome")

	chromeBin := findChromeBinary(cfg.ChromeBin)
	logger.Info("Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	// Suppress chromedp log noise
	tab, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// An empty Run launches the browser and opens the tab.
	if err := chromedp.Run(tab); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("%w: starting browser: %v", scraper.ErrScrapeFatal, err)
	}

	return &Site{
		cfg:    cfg,
		logger: logger,
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		tab:         tab,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}, nil
}

// SignIn fills and submits the sign-in form. Failing to find the form is
// fatal; a missing post-login marker only makes the sign-in unverified.
func (s *Site) SignIn(ctx context.Context) (bool, error) {
	s.logger.Info("Signing in at %s", s.cfg.SigninURL)

	err := s.run(ctx, s.cfg.WaitTimeout,
		chromedp.Navigate(s.cfg.SigninURL),
		chromedp.WaitVisible(emailSelector, chromedp.ByQuery),
	)
	if err != nil {
		return false, fmt.Errorf("%w: sign-in form not found: %v", scraper.ErrScrapeFatal, err)
	}

	err = s.run(ctx, s.cfg.WaitTimeout,
		chromedp.SendKeys(emailSelector, s.cfg.Email, chromedp.ByQuery),
		chromedp.SendKeys(passwordSelector, s.cfg.Password, chromedp.ByQuery),
		chromedp.Click(submitSelector, chromedp.ByQuery),
	)
	if err != nil {
		return false, fmt.Errorf("%w: submitting sign-in form: %v", scraper.ErrScrapeFatal, err)
	}

	if err := s.run(ctx, s.cfg.WaitTimeout, chromedp.WaitVisible(signedInSelector, chromedp.ByQuery)); err != nil {
		s.logger.Debug("Post-login marker not seen: %v", err)
		return false, nil
	}
	s.logger.Info("Signed in")
	return true, nil
}

// WeekIndex loads the contest page and reads its week pager.
func (s *Site) WeekIndex(ctx context.Context) ([]scraper.WeekLink, error) {
	html, location, err := s.load(ctx, "week-index", s.cfg.BlackoutURL, pagerSelector)
	if err != nil {
		return nil, err
	}
	return scraper.ParseWeekPager(strings.NewReader(html), location, s.cfg.BlackoutURL)
}

// ResultPage loads one page of a week's results.
func (s *Site) ResultPage(ctx context.Context, url string) (*scraper.Page, error) {
	html, location, err := s.load(ctx, "result-page", url, tableSelector)
	if err != nil {
		return nil, err
	}
	return scraper.ParseResultPage(strings.NewReader(html), location)
}

// Close shuts the tab and the browser.
func (s *Site) Close() error {
	s.cancelTab()
	s.cancelAlloc()
	return nil
}

// load navigates to url, waits for selector and returns the page HTML and
// its final location. Loads are spaced by the configured rate limit and
// retried with back-off.
func (s *Site) load(ctx context.Context, name, url, selector string) (html, location string, err error) {
	err = s.retry.Do(ctx, name, func(ctx context.Context) error {
		s.throttle()
		s.logger.Debug("Loading %s", url)
		return s.run(ctx, s.cfg.WaitTimeout,
			chromedp.Navigate(url),
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.Location(&location),
			chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		)
	})
	return html, location, err
}

// run executes actions in the shared tab, bounded by timeout and by ctx.
func (s *Site) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = defaultWait
	}
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *Site) throttle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	interval := time.Duration(s.cfg.RateLimitMs) * time.Millisecond
	if !s.lastLoad.IsZero() {
		if elapsed := time.Since(s.lastLoad); elapsed < interval {
			time.Sleep(interval - elapsed)
		}
	}
	s.lastLoad = time.Now()
}

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
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
