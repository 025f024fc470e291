package ecourts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JustJay7/chamber-desk/internal/config"
	"github.com/JustJay7/chamber-desk/pkg/logger"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Page selectors on the e-Courts CNR search page
const (
	cnrInput      = "#cino"
	searchButton  = "#searchbtn"
	captchaImage  = "#captcha_image"
	captchaInput  = "#fcaptcha_code"
	resultsMarker = "#history_cnr, table.case_details_table, .case_details_table"
)

// BrowserClient drives a headless browser through the e-Courts CNR search
type BrowserClient struct {
	cfg      *config.Config
	captchas *CaptchaStore
	logger   *logger.Logger

	mu      sync.Mutex
	browser *rod.Browser
}

// NewBrowserClient returns a client; the browser is launched on first use
func NewBrowserClient(cfg *config.Config, captchas *CaptchaStore, log *logger.Logger) *BrowserClient {
	return &BrowserClient{cfg: cfg, captchas: captchas, logger: log}
}

func (c *BrowserClient) connect() (*rod.Browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser != nil {
		return c.browser, nil
	}

	l := launcher.New().
		Headless(c.cfg.HeadlessMode).
		Set("user-agent", c.cfg.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if c.cfg.BrowserPath != "" {
		l = l.Bin(c.cfg.BrowserPath)
	}

	browserURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(browserURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	c.logger.Info("Browser launched for e-Courts lookups")
	c.browser = browser
	return browser, nil
}

// Close shuts the browser down if it was started
func (c *BrowserClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.browser == nil {
		return nil
	}
	err := c.browser.Close()
	c.browser = nil
	return err
}

// Fetch searches a CNR and returns the text of the case details page
func (c *BrowserClient) Fetch(ctx context.Context, cnr string) (string, error) {
	browser, err := c.connect()
	if err != nil {
		return "", err
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()

	if _, err := page.SetExtraHeaders([]string{"Accept-Language", "en-IN,en;q=0.9"}); err != nil {
		c.logger.Debug("Could not set extra headers", "error", err)
	}

	searchURL := c.cfg.ECourtsBaseURL + "/"
	c.logger.Info("Navigating to e-Courts", "url", searchURL)

	navCtx, navCancel := context.WithTimeout(ctx, 15*time.Second)
	defer navCancel()
	if err := page.Context(navCtx).Navigate(searchURL); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		// The form is often usable before every asset loads
		c.logger.Warn("Page load timeout", "error", err)
	}

	input, err := page.Element(cnrInput)
	if err != nil {
		return "", fmt.Errorf("CNR input not found: %w", err)
	}
	if err := input.Input(cnr); err != nil {
		return "", fmt.Errorf("failed to enter CNR: %w", err)
	}

	if err := c.handleCaptcha(ctx, page); err != nil {
		return "", fmt.Errorf("captcha handling failed: %w", err)
	}

	button, err := page.Element(searchButton)
	if err != nil {
		return "", fmt.Errorf("submit button not found: %w", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return "", fmt.Errorf("failed to submit search: %w", err)
	}

	if _, err := page.Element(resultsMarker); err != nil {
		body, _ := page.Element("body")
		if body != nil {
			text, _ := body.Text()
			return text, fmt.Errorf("no case details returned: %w", err)
		}
		return "", fmt.Errorf("no case details returned: %w", err)
	}

	body, err := page.Element("body")
	if err != nil {
		return "", fmt.Errorf("failed to read results: %w", err)
	}
	return body.Text()
}

// handleCaptcha queues the CAPTCHA for manual solving and types in the answer
func (c *BrowserClient) handleCaptcha(ctx context.Context, page *rod.Page) error {
	has, img, err := page.Has(captchaImage)
	if err != nil || !has {
		c.logger.Debug("No CAPTCHA detected")
		return nil
	}

	png, err := img.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return fmt.Errorf("failed to screenshot CAPTCHA: %w", err)
	}

	id := c.captchas.NewID()
	if err := c.captchas.Save(id, png); err != nil {
		return fmt.Errorf("failed to queue CAPTCHA: %w", err)
	}
	c.logger.Info("CAPTCHA saved for manual solving", "id", id)

	solution, err := c.captchas.Wait(ctx, id)
	if err != nil {
		return err
	}

	field, err := page.Element(captchaInput)
	if err != nil {
		return fmt.Errorf("CAPTCHA input field not found: %w", err)
	}
	return field.Input(solution)
}
