// Package browsertool provides the browser automation tool family: page
// navigation, interaction, content extraction, screenshots, declarative
// visual tests and test-code generation. Pages are keyed by a page id, and
// all operations on one page are serialized.
package browsertool

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pochehq/agentloop/logging"
	"github.com/pochehq/agentloop/tool"
)

const (
	// DefaultScreenshotDir is where screenshots land unless configured.
	DefaultScreenshotDir = "/tmp/screenshots"
	// contentTextLimit caps the visible text returned by browser_get_content.
	contentTextLimit = 5000
	// contentElementLimit caps each interactive-element list.
	contentElementLimit = 20
)

// Options configures a Toolset.
type Options struct {
	// ScreenshotDir is the directory screenshots are written to.
	ScreenshotDir string
	// Cleanup, when set, runs after browser_cleanup has closed all sessions
	// (the place to shut down the shared browser process).
	Cleanup func()
	Logger  logging.Logger
}

// Toolset exposes the browser tool family over a session manager.
type Toolset struct {
	frontendURL   string
	screenshotDir string
	sessions      *Sessions
	cleanup       func()
	logger        logging.Logger
}

// New constructs a Toolset. Relative navigation targets are resolved against
// frontendURL; new page sessions come from factory.
func New(factory DriverFactory, frontendURL string, optFns ...func(o *Options)) *Toolset {
	opts := Options{
		ScreenshotDir: DefaultScreenshotDir,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Toolset{
		frontendURL:   strings.TrimRight(frontendURL, "/"),
		screenshotDir: opts.ScreenshotDir,
		sessions:      NewSessions(factory),
		cleanup:       opts.Cleanup,
		logger:        opts.Logger,
	}
}

// Tools returns the browser tool family.
func (t *Toolset) Tools() []tool.Tool {
	return []tool.Tool{
		t.navigateTool(),
		t.screenshotTool(),
		t.clickTool(),
		t.fillTool(),
		t.getContentTool(),
		t.visualTestTool(),
		t.generateTestTool(),
		t.closePageTool(),
		t.cleanupTool(),
	}
}

// resolveURL turns a relative path or bare path into a frontend URL.
func (t *Toolset) resolveURL(url string) string {
	switch {
	case url == "":
		return t.frontendURL
	case strings.HasPrefix(url, "/"):
		return t.frontendURL + url
	case !strings.HasPrefix(url, "http"):
		return t.frontendURL + "/" + url
	}
	return url
}

func pageIDArg(args map[string]any) string {
	id, _ := args["page_id"].(string)
	return id
}

func (t *Toolset) navigateTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":     map[string]any{"type": "string", "description": "Full URL or path (e.g., /dashboard). Paths are resolved against the frontend URL."},
			"page_id": map[string]any{"type": "string", "description": "Identifier for this page session", "default": "default"},
		},
		"required": []string{},
	}
	return tool.NewFunctionTool(
		"browser_navigate",
		"Navigate to a URL in the browser, creating a new page session if needed",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			rawURL, _ := args["url"].(string)
			pageID := pageIDArg(args)
			target := t.resolveURL(rawURL)

			return t.sessions.with(ctx, pageID, true, func(d Driver) (any, error) {
				info, err := d.Navigate(ctx, target)
				if err != nil {
					return nil, err
				}
				t.logger.Debug("browser.navigate", "page_id", pageID, "url", info.URL)
				return map[string]any{
					"page_id": pageID,
					"url":     info.URL,
					"title":   info.Title,
				}, nil
			})
		},
	)
}

func (t *Toolset) screenshotTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_id":   map[string]any{"type": "string", "description": "Page session identifier", "default": "default"},
			"full_page": map[string]any{"type": "boolean", "description": "Capture the entire scrollable page", "default": false},
			"selector":  map[string]any{"type": "string", "description": "CSS selector to screenshot a specific element"},
			"filename":  map[string]any{"type": "string", "description": "Custom filename (auto-generated if not provided)"},
		},
		"required": []string{},
	}
	return tool.NewFunctionTool(
		"browser_screenshot",
		"Take a PNG screenshot of the current page or a specific element",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			pageID := pageIDArg(args)
			fullPage, _ := args["full_page"].(bool)
			selector, _ := args["selector"].(string)
			filename, _ := args["filename"].(string)

			return t.sessions.with(ctx, pageID, false, func(d Driver) (any, error) {
				image, err := d.Screenshot(ctx, fullPage, selector)
				if err != nil {
					return nil, err
				}
				return t.saveScreenshot(pageID, filename, image)
			})
		},
	)
}

// saveScreenshot writes the PNG to the screenshot directory and returns the
// location plus a short base64 preview.
func (t *Toolset) saveScreenshot(pageID, filename string, image []byte) (map[string]any, error) {
	if filename == "" {
		filename = fmt.Sprintf("screenshot_%s_%s.png", pageID, time.Now().Format("20060102_150405"))
	}
	if err := os.MkdirAll(t.screenshotDir, 0o755); err != nil {
		return nil, fmt.Errorf("create screenshot dir: %w", err)
	}
	filePath := filepath.Join(t.screenshotDir, filename)
	if err := os.WriteFile(filePath, image, 0o644); err != nil {
		return nil, fmt.Errorf("write screenshot: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(image)
	preview := encoded
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return map[string]any{
		"filepath":           filePath,
		"filename":           filename,
		"base64_preview":     preview,
		"full_base64_length": len(encoded),
	}, nil
}

func (t *Toolset) clickTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selector": map[string]any{"type": "string", "description": "CSS selector for the element"},
			"page_id":  map[string]any{"type": "string", "description": "Page session identifier", "default": "default"},
		},
		"required": []string{"selector"},
	}
	return tool.NewFunctionTool(
		"browser_click",
		"Click an element on the page",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			selector, _ := args["selector"].(string)
			pageID := pageIDArg(args)

			return t.sessions.with(ctx, pageID, false, func(d Driver) (any, error) {
				info, err := d.Click(ctx, selector)
				if err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "selector": selector, "url": info.URL}, nil
			})
		},
	)
}

func (t *Toolset) fillTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selector": map[string]any{"type": "string", "description": "CSS selector for the input element"},
			"value":    map[string]any{"type": "string", "description": "Text to enter"},
			"page_id":  map[string]any{"type": "string", "description": "Page session identifier", "default": "default"},
		},
		"required": []string{"selector", "value"},
	}
	return tool.NewFunctionTool(
		"browser_fill",
		"Fill a form input with text",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			selector, _ := args["selector"].(string)
			value, _ := args["value"].(string)
			pageID := pageIDArg(args)

			return t.sessions.with(ctx, pageID, false, func(d Driver) (any, error) {
				if err := d.Fill(ctx, selector, value); err != nil {
					return nil, err
				}
				return map[string]any{"success": true, "selector": selector, "value": value}, nil
			})
		},
	)
}

func (t *Toolset) getContentTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page session identifier", "default": "default"},
		},
		"required": []string{},
	}
	return tool.NewFunctionTool(
		"browser_get_content",
		"Get the current page's text content and interactive elements",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			pageID := pageIDArg(args)

			return t.sessions.with(ctx, pageID, false, func(d Driver) (any, error) {
				info, err := d.Info(ctx)
				if err != nil {
					return nil, err
				}
				text, err := d.Text(ctx)
				if err != nil {
					return nil, err
				}
				if len(text) > contentTextLimit {
					text = text[:contentTextLimit]
				}
				buttons, err := d.Elements(ctx, `button, [role="button"]`, contentElementLimit)
				if err != nil {
					return nil, err
				}
				links, err := d.Elements(ctx, `a[href]`, contentElementLimit)
				if err != nil {
					return nil, err
				}
				inputs, err := d.Elements(ctx, `input, textarea, select`, contentElementLimit)
				if err != nil {
					return nil, err
				}

				return map[string]any{
					"url":          info.URL,
					"title":        info.Title,
					"text_content": text,
					"buttons":      buttons,
					"links":        links,
					"inputs":       inputs,
				}, nil
			})
		},
	)
}

func (t *Toolset) visualTestTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"test_name": map[string]any{"type": "string", "description": "Name for this test"},
			"url":       map[string]any{"type": "string", "description": "URL to test (relative or absolute)"},
			"assertions": map[string]any{
				"type":        "array",
				"description": "Assertions, each with type (element_exists, text_contains, element_count), selector, and value",
			},
			"page_id": map[string]any{"type": "string", "description": "Page session identifier", "default": "default"},
		},
		"required": []string{"test_name", "url", "assertions"},
	}
	return tool.NewFunctionTool(
		"browser_visual_test",
		"Navigate to a URL, run a list of assertions against the page, and capture a reference screenshot",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			testName, _ := args["test_name"].(string)
			rawURL, _ := args["url"].(string)
			rawAssertions, _ := args["assertions"].([]any)
			pageID := pageIDArg(args)
			target := t.resolveURL(rawURL)

			return t.sessions.with(ctx, pageID, true, func(d Driver) (any, error) {
				if _, err := d.Navigate(ctx, target); err != nil {
					return nil, err
				}

				results := make([]map[string]any, 0, len(rawAssertions))
				allPassed := true
				for _, raw := range rawAssertions {
					assertion, _ := raw.(map[string]any)
					result := t.runAssertion(ctx, d, assertion)
					if passed, _ := result["passed"].(bool); !passed {
						allPassed = false
					}
					results = append(results, result)
				}

				var screenshotPath any
				if image, err := d.Screenshot(ctx, false, ""); err == nil {
					if saved, err := t.saveScreenshot(pageID, "test_"+testName+".png", image); err == nil {
						screenshotPath = saved["filepath"]
					}
				}

				return map[string]any{
					"test_name":  testName,
					"url":        rawURL,
					"passed":     allPassed,
					"assertions": results,
					"screenshot": screenshotPath,
				}, nil
			})
		},
	)
}

// runAssertion evaluates one visual-test assertion. Assertion failures and
// driver errors are reported in the result, never as a tool failure.
func (t *Toolset) runAssertion(ctx context.Context, d Driver, assertion map[string]any) map[string]any {
	assertionType, _ := assertion["type"].(string)
	selector, _ := assertion["selector"].(string)
	expected := assertion["value"]

	result := map[string]any{"type": assertionType, "selector": selector, "passed": false}

	switch assertionType {
	case "element_exists":
		count, err := d.Count(ctx, selector)
		if err != nil {
			result["error"] = err.Error()
			return result
		}
		result["passed"] = count > 0
		if count > 0 {
			result["details"] = "Element found"
		} else {
			result["details"] = "Element not found"
		}

	case "text_contains":
		text, err := d.InnerText(ctx, selector)
		if err != nil {
			result["error"] = err.Error()
			return result
		}
		want, _ := expected.(string)
		result["passed"] = strings.Contains(text, want)
		if len(text) > 100 {
			result["details"] = fmt.Sprintf("Found: '%s...'", text[:100])
		} else {
			result["details"] = fmt.Sprintf("Found: '%s'", text)
		}

	case "element_count":
		count, err := d.Count(ctx, selector)
		if err != nil {
			result["error"] = err.Error()
			return result
		}
		want := intArg(expected)
		result["passed"] = count == want
		result["details"] = fmt.Sprintf("Expected %d, found %d", want, count)

	default:
		result["error"] = fmt.Sprintf("unknown assertion type: %s", assertionType)
	}
	return result
}

func intArg(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func (t *Toolset) closePageTool() tool.Tool {
	params := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"page_id": map[string]any{"type": "string", "description": "Page session identifier", "default": "default"},
		},
		"required": []string{},
	}
	return tool.NewFunctionTool(
		"browser_close_page",
		"Close a browser page session",
		params,
		func(ctx context.Context, args map[string]any) (any, error) {
			pageID := pageIDArg(args)
			if err := t.sessions.Close(ctx, pageID); err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "page_id": pageID}, nil
		},
	)
}

func (t *Toolset) cleanupTool() tool.Tool {
	params := map[string]any{"type": "object", "properties": map[string]any{}, "required": []string{}}
	return tool.NewFunctionTool(
		"browser_cleanup",
		"Close all pages and the browser. Call this when done with browser testing.",
		params,
		func(ctx context.Context, _ map[string]any) (any, error) {
			err := t.sessions.CloseAll(ctx)
			if t.cleanup != nil {
				t.cleanup()
			}
			if err != nil {
				return nil, err
			}
			return map[string]any{"success": true, "message": "All browser resources cleaned up"}, nil
		},
	)
}
