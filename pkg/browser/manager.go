// Package browser wraps Playwright behind the workflow's page abstraction:
// per-job isolated sessions, interactive-element tagging, screenshot
// artifacts, and a URL block policy.
package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// stealthArgs hide the most common automation signals. Applied only when a
// job requests stealth mode.
var stealthArgs = []string{
	"--disable-blink-features=AutomationControlled",
	"--disable-infobars",
}

const (
	gotoTimeout     = 90 * time.Second
	bodyWaitTimeout = 15 * time.Second
	initialSettle   = 5 * time.Second
)

// Viewport is the browser viewport size shared by all sessions.
type Viewport struct {
	Width  int
	Height int
}

// ManagerConfig holds session defaults.
type ManagerConfig struct {
	ScreenshotsDir string
	Viewport       Viewport
	BlockedURLs    []string

	// Timing overrides the per-session wait budgets; zero means
	// DefaultTiming.
	Timing *Timing
}

// Manager owns the process-wide Playwright instance and launches one
// isolated browser per job.
type Manager struct {
	mu          sync.Mutex
	pw          *playwright.Playwright
	cfg         ManagerConfig
	policy      *URLPolicy
	initialized bool
}

// NewManager creates a manager; Initialize must be called before sessions
// can be launched.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	policy, err := NewURLPolicy(cfg.BlockedURLs)
	if err != nil {
		return nil, err
	}
	if cfg.Viewport.Width == 0 || cfg.Viewport.Height == 0 {
		cfg.Viewport = Viewport{Width: 1280, Height: 1080}
	}
	return &Manager{cfg: cfg, policy: policy}, nil
}

// Initialize installs browser binaries if needed and starts the Playwright
// driver. Driver output is discarded so it cannot interleave with service
// logs.
func (m *Manager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	opts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.pw = pw
	m.initialized = true
	return nil
}

// NewSession launches an isolated browser for one job and navigates it to
// the starting URL: domcontentloaded wait, body-selector wait, then a short
// settle so late-loading content is present before planning begins.
func (m *Manager) NewSession(jobID, startURL string, stealth bool) (*Session, error) {
	m.mu.Lock()
	if !m.initialized {
		m.mu.Unlock()
		return nil, fmt.Errorf("browser manager not initialized")
	}
	pw := m.pw
	m.mu.Unlock()

	if err := m.policy.Check(startURL); err != nil {
		return nil, err
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	}
	if stealth {
		launchOpts.Args = stealthArgs
	}

	browser, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  m.cfg.Viewport.Width,
			Height: m.cfg.Viewport.Height,
		},
		UserAgent: playwright.String(userAgent),
	})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	timing := DefaultTiming()
	if m.cfg.Timing != nil {
		timing = *m.cfg.Timing
	}

	session := &Session{
		jobID:          jobID,
		browser:        browser,
		context:        context,
		page:           page,
		screenshotsDir: m.cfg.ScreenshotsDir,
		policy:         m.policy,
		timing:         timing,
	}

	if _, err := page.Goto(startURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(gotoTimeout.Milliseconds())),
	}); err != nil {
		session.Close()
		return nil, fmt.Errorf("initial navigation failed: %w", err)
	}

	if _, err := page.WaitForSelector("body", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(bodyWaitTimeout.Milliseconds())),
	}); err != nil {
		session.Close()
		return nil, fmt.Errorf("page body never appeared: %w", err)
	}
	page.WaitForTimeout(float64(initialSettle.Milliseconds()))

	return session, nil
}

// Shutdown stops the Playwright driver. Sessions are owned by their jobs and
// must be closed by them.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized && m.pw != nil {
		if err := m.pw.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}
	return nil
}
