package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"cruise-scraper/config"
	"cruise-scraper/scraper/royalcaribbean"
	"cruise-scraper/utils"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Browser is a running Chrome instance. Its first tab is the search page;
// further tabs come from NewTab.
type Browser struct {
	*tab

	cancelAlloc context.CancelFunc
}

var (
	_ royalcaribbean.Page             = (*Browser)(nil)
	_ royalcaribbean.ConsentDismisser = (*Browser)(nil)
	_ royalcaribbean.Tab              = (*tab)(nil)
)

// Launch starts Chrome and opens the first tab. Close releases both.
func Launch(cfg *config.Config, logger *utils.Logger) (*Browser, error) {
	chromeBin := cfg.ChromeBin
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	logger.Info("[browser] Using browser binary: %s", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Debug),
		chromedp.WithErrorf(logger.Debug),
	)

	b := &Browser{
		tab:         &tab{ctx: browserCtx, cancel: cancelBrowser, logger: logger},
		cancelAlloc: cancelAlloc,
	}
	if err := b.start(
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-GB,en;q=0.9"}),
	); err != nil {
		b.Close()
		return nil, fmt.Errorf("browser: launch: %w", err)
	}
	return b, nil
}

// Close shuts down every tab and the Chrome process.
func (b *Browser) Close() error {
	b.tab.Close()
	b.cancelAlloc()
	return nil
}

func (b *Browser) Click(ctx context.Context, selector string) error {
	var clicked bool
	if err := b.run(ctx, chromedp.Evaluate(clickScript(selector, false), &clicked)); err != nil {
		return fmt.Errorf("browser: click %s: %w", selector, err)
	}
	if !clicked {
		return fmt.Errorf("browser: click %s: no matching element", selector)
	}
	return nil
}

func (b *Browser) ClickNth(ctx context.Context, selector string, index int) error {
	var nodes []*cdp.Node
	if err := b.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return fmt.Errorf("browser: query %s: %w", selector, err)
	}
	if index < 0 || index >= len(nodes) {
		return fmt.Errorf("browser: %s has %d matches, no index %d", selector, len(nodes), index)
	}
	if err := b.run(ctx,
		chromedp.ScrollIntoView([]cdp.NodeID{nodes[index].NodeID}, chromedp.ByNodeID),
		chromedp.MouseClickNode(nodes[index]),
	); err != nil {
		return fmt.Errorf("browser: click %s[%d]: %w", selector, index, err)
	}
	return nil
}

func (b *Browser) ClickIfVisible(ctx context.Context, selector string) (bool, error) {
	var clicked bool
	if err := b.run(ctx, chromedp.Evaluate(clickScript(selector, true), &clicked)); err != nil {
		return false, fmt.Errorf("browser: click %s: %w", selector, err)
	}
	return clicked, nil
}

func (b *Browser) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (b *Browser) PressEscape(ctx context.Context) error {
	if err := b.run(ctx, chromedp.KeyEvent(kb.Escape)); err != nil {
		return fmt.Errorf("browser: escape: %w", err)
	}
	return nil
}

// NewTab opens a tab in the same browser.
func (b *Browser) NewTab(ctx context.Context) (royalcaribbean.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	t := &tab{ctx: tabCtx, cancel: cancel, logger: b.logger}
	if err := t.start(); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: new tab: %w", err)
	}
	return t, nil
}

// DismissConsent clicks the first cookie-banner button offering to reject,
// or failing that accept, cookies.
func (b *Browser) DismissConsent(ctx context.Context) (string, error) {
	var res struct {
		Found  bool   `json:"found"`
		Text   string `json:"text"`
		Action string `json:"action"`
	}
	if err := b.run(ctx, chromedp.Evaluate(consentScript, &res)); err != nil {
		return "", fmt.Errorf("browser: consent: %w", err)
	}
	if !res.Found {
		return "", nil
	}
	b.logger.Debug("[browser] Consent button %q", strings.TrimSpace(res.Text))
	return res.Action, b.Sleep(ctx, time.Second)
}

// tab is one chromedp target.
type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	logger *utils.Logger
}

// start creates the target. The first Run must use the tab context itself,
// since the context of that call bounds the target's lifetime.
func (t *tab) start(actions ...chromedp.Action) error {
	return chromedp.Run(t.ctx, actions...)
}

// run executes actions on the tab, aborting when either ctx or the tab
// context ends.
func (t *tab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (t *tab) Navigate(ctx context.Context, url string) error {
	if err := t.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	return nil
}

func (t *tab) Snapshot(ctx context.Context) (*goquery.Document, error) {
	var html string
	if err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("browser: snapshot: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (t *tab) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := t.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("browser: %s not visible after %s: %w", selector, timeout, err)
	}
	return err
}

// Close closes the target. Safe to call more than once.
func (t *tab) Close() error {
	t.once.Do(t.cancel)
	return nil
}

// clickScript returns JS that clicks the first element matching selector
// and evaluates to whether it did. With visibleOnly, hidden or disabled
// elements are left alone.
func clickScript(selector string, visibleOnly bool) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`(function() {
		const el = document.querySelector(%s);
		if (!el) return false;
		if (%t) {
			const style = window.getComputedStyle(el);
			if (el.disabled || style.visibility === 'hidden' || style.display === 'none' || el.getClientRects().length === 0) {
				return false;
			}
		}
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	})()`, quoted, visibleOnly)
}

const consentScript = `(function() {
	const reject = ['reject all', 'reject cookies', 'decline all'];
	const accept = ['accept all', 'accept cookies', 'allow all'];
	for (const btn of document.querySelectorAll('button')) {
		const text = (btn.innerText || btn.textContent || '');
		const lower = text.toLowerCase();
		if (reject.some(p => lower.includes(p))) {
			btn.click();
			return {found: true, text: text, action: 'rejected'};
		}
		if (accept.some(p => lower.includes(p))) {
			btn.click();
			return {found: true, text: text, action: 'accepted'};
		}
	}
	return {found: false, text: '', action: ''};
})()`

func findChromeBinary() string {
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
