// Package browser performs the interactive web login in a headless Chrome
// instance and returns the resulting session cookies.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.Authenticator = (*Authenticator)(nil)

const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	emailSelector    = `input[placeholder="Email address"]`
	passwordSelector = `input[placeholder="Password"]`
	// Case-insensitive match on the button label.
	submitSelector = `//button[contains(translate(normalize-space(.), "ABCDEFGHIJKLMNOPQRSTUVWXYZ", "abcdefghijklmnopqrstuvwxyz"), "sign in")]`

	locationPollInterval = 500 * time.Millisecond

	// Runs before any page script so the login page sees a regular browser.
	hideWebdriverScript = `Object.defineProperty(navigator, 'webdriver', {get: () => false});`
)

// Config holds the login page coordinates and account secrets.
type Config struct {
	LoginURL    string
	SuccessPath string // Substring the post-login URL must contain.
	Email       string
	Password    string
	Headless    bool
	ChromePath  string // Empty lets chromedp locate the browser.
	Timeout     time.Duration
}

// Authenticator logs in through a real browser session.
type Authenticator struct {
	cfg  Config
	host string
}

// NewAuthenticator validates cfg and returns an Authenticator.
func NewAuthenticator(cfg Config) (*Authenticator, error) {
	u, err := url.Parse(cfg.LoginURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid login url %q", cfg.LoginURL)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("login timeout must be positive, got %s", cfg.Timeout)
	}

	return &Authenticator{cfg: cfg, host: u.Hostname()}, nil
}

// Login opens the login page, submits the credentials, waits for the
// post-login page and returns the cookies visible to the login host. Any
// failure wraps driven.ErrLoginFailed.
func (a *Authenticator) Login(ctx context.Context) (driven.CookieSource, error) {
	started := time.Now()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", a.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
		chromedp.WindowSize(1280, 720),
	)
	if a.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(a.cfg.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	runCtx, cancel := context.WithTimeout(browserCtx, a.cfg.Timeout)
	defer cancel()

	slog.Debug("opening login page", "url", a.cfg.LoginURL)

	err := chromedp.Run(runCtx, a.loginTasks())
	if err != nil {
		return nil, a.loginError(runCtx, "submit login form", err)
	}

	if err := waitForLocation(runCtx, a.cfg.SuccessPath); err != nil {
		return nil, a.loginError(runCtx, "wait for post-login page", err)
	}

	var cookies []*network.Cookie
	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, a.loginError(runCtx, "read cookies", err)
	}

	jar := snapshotCookies(cookies, a.host)

	slog.Info("browser login complete",
		"cookies", len(jar),
		"duration", time.Since(started).Round(time.Millisecond),
	)

	return jar, nil
}

// loginTasks installs the webdriver override and then fills in and submits
// the login form.
func (a *Authenticator) loginTasks() chromedp.Tasks {
	return chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverScript).Do(ctx)
			return err
		}),
		chromedp.Navigate(a.cfg.LoginURL),
		chromedp.WaitVisible(emailSelector, chromedp.ByQuery),
		chromedp.SendKeys(emailSelector, a.cfg.Email, chromedp.ByQuery),
		chromedp.SendKeys(passwordSelector, a.cfg.Password, chromedp.ByQuery),
		chromedp.Click(submitSelector, chromedp.BySearch),
	}
}

func (a *Authenticator) loginError(runCtx context.Context, step string, err error) error {
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: timed out after %s", driven.ErrLoginFailed, step, a.cfg.Timeout)
	}
	return fmt.Errorf("%w: %s: %w", driven.ErrLoginFailed, step, err)
}

// waitForLocation polls the current page URL until it contains path.
func waitForLocation(ctx context.Context, path string) error {
	ticker := time.NewTicker(locationPollInterval)
	defer ticker.Stop()

	for {
		var location string
		if err := chromedp.Run(ctx, chromedp.Location(&location)); err != nil {
			return err
		}
		if reachedLocation(location, path) {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// reachedLocation reports whether location's path contains want.
func reachedLocation(location, want string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, want)
}
