package browsertool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ChromeFactory launches a single headless Chrome process on first use and
// hands out one tab per session. The process lives until Shutdown.
type ChromeFactory struct {
	once        sync.Once
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
}

// NewChromeFactory returns a factory that will launch Chrome lazily.
// opTimeout bounds each driver operation; zero means 30 seconds.
func NewChromeFactory(opTimeout time.Duration) *ChromeFactory {
	if opTimeout <= 0 {
		opTimeout = 30 * time.Second
	}
	return &ChromeFactory{timeout: opTimeout}
}

// New creates a driver backed by a fresh browser tab.
func (f *ChromeFactory) New(_ context.Context) (Driver, error) {
	f.once.Do(func() {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
		// The allocator must outlive individual tool calls, so it hangs off
		// the background context rather than the caller's.
		f.allocCtx, f.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	})

	tabCtx, cancel := chromedp.NewContext(f.allocCtx)
	return &chromeDriver{ctx: tabCtx, cancel: cancel, timeout: f.timeout}, nil
}

// Shutdown terminates the browser process. Drivers created by this factory
// become unusable.
func (f *ChromeFactory) Shutdown() {
	if f.allocCancel != nil {
		f.allocCancel()
	}
}

type chromeDriver struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// run executes actions on the tab, honoring both the per-operation timeout
// and the caller's cancellation.
func (d *chromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

func (d *chromeDriver) Navigate(ctx context.Context, url string) (PageInfo, error) {
	var info PageInfo
	err := d.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&info.URL),
		chromedp.Title(&info.Title),
	)
	return info, err
}

func (d *chromeDriver) Info(ctx context.Context) (PageInfo, error) {
	var info PageInfo
	err := d.run(ctx,
		chromedp.Location(&info.URL),
		chromedp.Title(&info.Title),
	)
	return info, err
}

func (d *chromeDriver) Screenshot(ctx context.Context, fullPage bool, selector string) ([]byte, error) {
	var buf []byte
	var action chromedp.Action
	switch {
	case selector != "":
		action = chromedp.Screenshot(selector, &buf, chromedp.NodeVisible, chromedp.ByQuery)
	case fullPage:
		action = chromedp.FullScreenshot(&buf, 90)
	default:
		action = chromedp.CaptureScreenshot(&buf)
	}
	if err := d.run(ctx, action); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *chromeDriver) Click(ctx context.Context, selector string) (PageInfo, error) {
	var info PageInfo
	err := d.run(ctx,
		chromedp.Click(selector, chromedp.ByQuery),
		chromedp.Location(&info.URL),
		chromedp.Title(&info.Title),
	)
	return info, err
}

func (d *chromeDriver) Fill(ctx context.Context, selector, value string) error {
	return d.run(ctx, chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (d *chromeDriver) Text(ctx context.Context) (string, error) {
	var text string
	err := d.run(ctx, chromedp.Evaluate(`document.body.innerText`, &text))
	return text, err
}

func (d *chromeDriver) Elements(ctx context.Context, selector string, limit int) ([]Element, error) {
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%q)).slice(0, %d).map(el => ({
		text: el.innerText || "",
		class: el.className || "",
		href: el.href || "",
		type: el.type || "",
		name: el.name || "",
		id: el.id || "",
		placeholder: el.placeholder || ""
	}))`, selector, limit)

	var elements []Element
	if err := d.run(ctx, chromedp.Evaluate(script, &elements)); err != nil {
		return nil, err
	}
	return elements, nil
}

func (d *chromeDriver) InnerText(ctx context.Context, selector string) (string, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) { throw new Error("element not found: " + %q); }
		return el.innerText;
	})()`, selector, selector)

	var text string
	err := d.run(ctx, chromedp.Evaluate(script, &text))
	return text, err
}

func (d *chromeDriver) Count(ctx context.Context, selector string) (int, error) {
	script := fmt.Sprintf(`document.querySelectorAll(%q).length`, selector)
	var count int
	err := d.run(ctx, chromedp.Evaluate(script, &count))
	return count, err
}

func (d *chromeDriver) Close(_ context.Context) error {
	d.cancel()
	return nil
}
