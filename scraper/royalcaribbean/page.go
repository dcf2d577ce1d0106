package royalcaribbean

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNavigation means the search page could not be loaded.
	ErrNavigation = errors.New("royalcaribbean: navigation failed")
	// ErrListingsNotFound means no cruise card appeared within the wait timeout.
	ErrListingsNotFound = errors.New("royalcaribbean: cruise listings not found")
	// ErrDetailOpen means a listing's detail surface could not be opened.
	ErrDetailOpen = errors.New("royalcaribbean: detail surface did not open")
	// ErrNoSuitePanel means the room-selection page showed no suite panel.
	ErrNoSuitePanel = errors.New("royalcaribbean: suite panel not found")
)

// Page is the browsing context that drives the search page and its detail
// surfaces. Implementations serialise nothing themselves; callers use one
// Page from one goroutine.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Snapshot returns the current rendered DOM.
	Snapshot(ctx context.Context) (*goquery.Document, error)
	Click(ctx context.Context, selector string) error
	// ClickNth clicks the index-th element (0-based) matching selector.
	ClickNth(ctx context.Context, selector string, index int) error
	// ClickIfVisible clicks the first element matching selector when it is
	// visible and enabled, and reports whether it did.
	ClickIfVisible(ctx context.Context, selector string) (bool, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Sleep(ctx context.Context, d time.Duration) error
	PressEscape(ctx context.Context) error
	// NewTab opens an independent browsing context. The caller owns the
	// returned Tab and must Close it.
	NewTab(ctx context.Context) (Tab, error)
}

// Tab is a secondary browsing context. Close is idempotent.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	Snapshot(ctx context.Context) (*goquery.Document, error)
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Close() error
}

// ConsentDismisser is implemented by pages that can clear a cookie banner.
// It reports the action taken ("accepted", "rejected") or "" when no banner
// was found.
type ConsentDismisser interface {
	DismissConsent(ctx context.Context) (string, error)
}
