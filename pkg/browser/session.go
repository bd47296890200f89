// Package browser wraps a Playwright-driven browser behind the small surface
// the agent needs: navigation, element interaction, content extraction, and
// the simplified page state fed to the model.
package browser

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/entrhq/surf/pkg/config"
	"github.com/playwright-community/playwright-go"
)

const (
	defaultTimeoutMillis = 30000.0
	viewportWidth        = 1280
	viewportHeight       = 720
)

// Driver is the browser surface the tools and the state provider operate on.
// Session implements it against a live Playwright page; tests substitute
// fakes.
type Driver interface {
	Goto(url string) error
	Click(selector string) error
	Fill(selector, value string) error
	Content() (string, error)
	TextContent(selector string) (string, error)
	Title() (string, error)
	URL() string
	ScreenshotJPEG(quality int) ([]byte, error)
}

// Session owns one Playwright browser with a single page. One session serves
// one task at a time.
type Session struct {
	mu         sync.Mutex
	pw         *playwright.Playwright
	browser    playwright.Browser
	browserCtx playwright.BrowserContext
	page       playwright.Page
	lastUsed   time.Time
}

// NewSession installs the Playwright driver if needed, launches Chromium, and
// opens a blank page.
func NewSession(cfg *config.Config) (*Session, error) {
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &cfg.Headless,
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: viewportWidth, Height: viewportHeight},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		browserCtx.Close()
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(defaultTimeoutMillis)

	return &Session{
		pw:         pw,
		browser:    browser,
		browserCtx: browserCtx,
		page:       page,
		lastUsed:   time.Now(),
	}, nil
}

func (s *Session) touch() {
	s.lastUsed = time.Now()
}

// Goto navigates the page and waits for the DOM to be ready.
func (s *Session) Goto(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	waitUntil := playwright.WaitUntilStateDomcontentloaded
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{WaitUntil: waitUntil}); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	return nil
}

// Click clicks the first element matching the selector.
func (s *Session) Click(selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.page.Click(selector); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Fill sets the value of the input matching the selector.
func (s *Session) Fill(selector, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := s.page.Fill(selector, value); err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Content returns the page's full HTML.
func (s *Session) Content() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	content, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return content, nil
}

// TextContent returns the text of the first element matching the selector,
// or the body text when the selector is empty.
func (s *Session) TextContent(selector string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if selector == "" {
		selector = "body"
	}
	element, err := s.page.QuerySelector(selector)
	if err != nil {
		return "", fmt.Errorf("selector query failed: %w", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	text, err := element.TextContent()
	if err != nil {
		return "", fmt.Errorf("text extraction failed: %w", err)
	}
	return text, nil
}

// Title returns the page title.
func (s *Session) Title() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	title, err := s.page.Title()
	if err != nil {
		return "", fmt.Errorf("failed to read page title: %w", err)
	}
	return title, nil
}

// URL returns the page's current URL.
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.URL()
}

// ScreenshotJPEG captures the current viewport as a JPEG at the given
// quality.
func (s *Session) ScreenshotJPEG(quality int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	jpeg := playwright.ScreenshotTypeJpeg
	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Type:    jpeg,
		Quality: &quality,
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return data, nil
}

// Close tears down the page, context, browser, and Playwright driver.
// Resource errors during teardown are ignored so cleanup always completes.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.page.Close()
	_ = s.browserCtx.Close()
	_ = s.browser.Close()
	if err := s.pw.Stop(); err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}
