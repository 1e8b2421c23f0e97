package browsertool

import "context"

// PageInfo describes the page a driver is currently on.
type PageInfo struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Element is a flattened summary of a DOM element. Only the fields relevant
// to the element kind are populated.
type Element struct {
	Text        string `json:"text,omitempty"`
	Class       string `json:"class,omitempty"`
	Href        string `json:"href,omitempty"`
	Type        string `json:"type,omitempty"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// Driver is one browser page session. Implementations are not required to be
// concurrency-safe; the session manager serializes access per session.
type Driver interface {
	// Navigate loads the given absolute URL and returns the resulting page.
	Navigate(ctx context.Context, url string) (PageInfo, error)
	// Info reports the current URL and title without navigating.
	Info(ctx context.Context) (PageInfo, error)
	// Screenshot captures the page as PNG. When selector is non-empty only
	// that element is captured; fullPage captures the whole scroll height.
	Screenshot(ctx context.Context, fullPage bool, selector string) ([]byte, error)
	// Click clicks the first element matching selector and returns the page
	// state after the click settles.
	Click(ctx context.Context, selector string) (PageInfo, error)
	// Fill sets the value of the first input matching selector.
	Fill(ctx context.Context, selector, value string) error
	// Text returns the visible text of the page body.
	Text(ctx context.Context) (string, error)
	// Elements summarizes up to limit elements matching selector.
	Elements(ctx context.Context, selector string, limit int) ([]Element, error)
	// InnerText returns the visible text of the first element matching
	// selector, failing when no element matches.
	InnerText(ctx context.Context, selector string) (string, error)
	// Count reports how many elements match selector.
	Count(ctx context.Context, selector string) (int, error)
	Close(ctx context.Context) error
}

// DriverFactory creates a fresh page session.
type DriverFactory func(ctx context.Context) (Driver, error)
