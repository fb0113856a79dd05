package browser

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/surf/pkg/agent"
)

// Timing groups the wait budgets applied around page interactions. Tests
// shrink these; production uses DefaultTiming.
type Timing struct {
	// Interaction bounds element visibility waits and the interaction
	// itself.
	Interaction time.Duration

	// ScrollSettle is the pause after a scroll.
	ScrollSettle time.Duration

	// WaitPause is the duration of an explicit wait action.
	WaitPause time.Duration

	// PostAction is the uniform settle applied after every action.
	PostAction time.Duration
}

// DefaultTiming returns the production wait budgets.
func DefaultTiming() Timing {
	return Timing{
		Interaction:  30 * time.Second,
		ScrollSettle: 2 * time.Second,
		WaitPause:    10 * time.Second,
		PostAction:   5 * time.Second,
	}
}

// Session is one job's isolated browser: its own browser process, context,
// and page. It implements agent.Browser.
type Session struct {
	jobID   string
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	screenshotsDir string
	policy         *URLPolicy
	timing         Timing
}

// URL returns the page's current location.
func (s *Session) URL() string {
	return s.page.URL()
}

// Observe reads the page, tags interactive elements, applies the tagged
// markup back to the live page, and returns the element listing.
func (s *Session) Observe(_ context.Context) (string, error) {
	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}

	elements, tagged, err := Simplify(content)
	if err != nil {
		return "", err
	}

	if tagged != "" {
		if err := s.page.SetContent(tagged); err != nil {
			return "", fmt.Errorf("failed to apply tagged markup: %w", err)
		}
	}
	return elements, nil
}

// Screenshot captures the viewport into the job's artifact directory and
// returns both the web-relative path and the on-disk path.
func (s *Session) Screenshot(name string) (string, string, error) {
	dir := filepath.Join(s.screenshotsDir, s.jobID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	filePath := filepath.Join(dir, name)
	_, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(filePath),
		FullPage: playwright.Bool(false),
	})
	if err != nil {
		return "", "", fmt.Errorf("screenshot failed: %w", err)
	}

	// Best effort: a full-size frame still works as a prompt attachment.
	_ = downscaleScreenshot(filePath, maxScreenshotDim)

	webPath := path.Join("screenshots", s.jobID, name)
	return webPath, filePath, nil
}

// Execute performs one action against the page. Extract and finish actions
// are settle-only here; their state effects live in the workflow. The
// uniform post-action settle applies to every kind.
func (s *Session) Execute(_ context.Context, action agent.Action) error {
	var err error
	switch action.Kind {
	case agent.ActionClick:
		err = s.interact(action.ElementID, func(loc playwright.Locator) error {
			return loc.Click(playwright.LocatorClickOptions{Timeout: s.ms(s.timing.Interaction)})
		})
		if err == nil {
			err = s.afterNavigation()
		}

	case agent.ActionPressEnter:
		err = s.interact(action.ElementID, func(loc playwright.Locator) error {
			return loc.Press("Enter", playwright.LocatorPressOptions{Timeout: s.ms(s.timing.Interaction)})
		})
		if err == nil {
			err = s.afterNavigation()
		}

	case agent.ActionFill:
		err = s.interact(action.ElementID, func(loc playwright.Locator) error {
			return loc.Fill(action.Text, playwright.LocatorFillOptions{Timeout: s.ms(s.timing.Interaction)})
		})

	case agent.ActionScroll:
		err = s.scroll(action.Direction)

	case agent.ActionWait:
		s.page.WaitForTimeout(float64(s.timing.WaitPause.Milliseconds()))

	case agent.ActionExtract, agent.ActionFinish:
		// Settle-only.

	default:
		return fmt.Errorf("unsupported action type: %s", action.Kind)
	}
	if err != nil {
		return err
	}

	s.page.WaitForTimeout(float64(s.timing.PostAction.Milliseconds()))
	return nil
}

// interact resolves the tagged element, waits for visibility, then runs the
// interaction against it.
func (s *Session) interact(elementID string, fn func(playwright.Locator) error) error {
	if elementID == "" {
		return fmt.Errorf("action is missing a target element id")
	}

	selector := fmt.Sprintf("[%s='%s']", agentIDAttr, elementID)
	loc := s.page.Locator(selector).First()

	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: s.ms(s.timing.Interaction),
	})
	if err != nil {
		return fmt.Errorf("element %s not visible: %w", elementID, err)
	}

	return fn(loc)
}

func (s *Session) scroll(direction string) error {
	script := "window.scrollBy(0, window.innerHeight * 0.8)"
	if direction == "up" {
		script = "window.scrollBy(0, -window.innerHeight * 0.8)"
	}
	if _, err := s.page.Evaluate(script); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	s.page.WaitForTimeout(float64(s.timing.ScrollSettle.Milliseconds()))
	return nil
}

// afterNavigation waits for the page to settle after an interaction that may
// have navigated, then enforces the URL block policy on wherever the page
// ended up.
func (s *Session) afterNavigation() error {
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: s.ms(s.timing.Interaction),
	})
	if err != nil {
		return err
	}
	return s.policy.Check(s.page.URL())
}

func (s *Session) ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

// Close releases the session's browser resources. Errors are ignored so
// cleanup always completes.
func (s *Session) Close() {
	_ = s.page.Close()
	_ = s.context.Close()
	_ = s.browser.Close()
}
