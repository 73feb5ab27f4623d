package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/pkg/errors"
	"github.com/sunshower1127/swrod/finder"
	"github.com/sunshower1127/swrod/pkg/logger"
	"github.com/sunshower1127/swrod/storage"
)

const navigateTimeout = 60 * time.Second

// Driver is the session facade. It tracks the active window and frame,
// carries the lookup budget, and exposes the four find contracts through the
// embedded findable.
//
// A Driver is single-threaded by design: the underlying session is not safe
// for concurrent queries, and serializing access is the caller's job.
type Driver struct {
	findable

	mgr     *Manager
	browser *rod.Browser
	root    *rod.Page   // active window
	frames  []*rod.Page // frame stack under root, innermost last

	timeout time.Duration
	poll    time.Duration
	debug   bool
	journal *storage.Journal
}

func newDriver(mgr *Manager, browser *rod.Browser, page *rod.Page) *Driver {
	cfg := mgr.Config()
	d := &Driver{
		mgr:     mgr,
		browser: browser,
		root:    page,
		timeout: cfg.Retry.TimeoutDuration(),
		poll:    cfg.Retry.PollDuration(),
		debug:   cfg.Debug,
	}
	d.findable = findable{drv: d, scope: func() finder.Scope {
		return finder.PageScope(d.page())
	}}
	return d
}

// page is the node queries run against: the innermost frame, or the window.
func (d *Driver) page() *rod.Page {
	if n := len(d.frames); n > 0 {
		return d.frames[n-1]
	}
	return d.root
}

// ActivePage exposes the current query target for direct rod calls.
func (d *Driver) ActivePage() *rod.Page { return d.page() }

// Browser exposes the underlying rod browser.
func (d *Driver) Browser() *rod.Browser { return d.browser }

// SetDebug toggles the diagnostic companion: failed strict lookups log their
// locator, search other windows/frames for it, and land in the journal.
func (d *Driver) SetDebug(on bool) { d.debug = on }

// AttachJournal persists debug-mode lookup failures. The driver does not own
// the journal; closing it is the caller's job.
func (d *Driver) AttachJournal(j *storage.Journal) { d.journal = j }

// Retry returns the current lookup budget.
func (d *Driver) Retry() (timeout, poll time.Duration) {
	return d.timeout, d.poll
}

// SetRetry replaces the lookup budget and returns a func restoring the
// previous one, for scoped tightening:
//
//	restore := web.SetRetry(time.Second, 100*time.Millisecond)
//	defer restore()
func (d *Driver) SetRetry(timeout, poll time.Duration) (restore func()) {
	prevTimeout, prevPoll := d.timeout, d.poll
	d.timeout = timeout
	d.poll = poll
	return func() {
		d.timeout = prevTimeout
		d.poll = prevPoll
	}
}

func (d *Driver) finder() *finder.Finder {
	return finder.New(d.timeout, d.poll)
}

// Navigate loads url in the active window and waits for the load event.
// Entering a page resets the frame stack.
func (d *Driver) Navigate(ctx context.Context, url string) error {
	logger.Info(ctx, "Navigating to %s", url)
	if err := d.root.Timeout(navigateTimeout).Navigate(url); err != nil {
		return errors.Wrapf(err, "failed to navigate to %s", url)
	}
	if err := d.root.Timeout(navigateTimeout).WaitLoad(); err != nil {
		return errors.Wrap(err, "failed to wait for page load")
	}
	d.frames = nil
	return nil
}

// WaitLoad waits for the active window's load event, for pages that reload
// themselves after an action.
func (d *Driver) WaitLoad(ctx context.Context) error {
	if err := d.root.Timeout(navigateTimeout).WaitLoad(); err != nil {
		return errors.Wrap(err, "failed to wait for page load")
	}
	return nil
}

// Wait blocks for the given duration.
func (d *Driver) Wait(ctx context.Context, dur time.Duration) {
	logger.Debug(ctx, "waiting %s", dur)
	select {
	case <-ctx.Done():
	case <-time.After(dur):
	}
}

// GotoWindow switches the active window by index. Negative indexes count
// from the end, so -1 is the most recently opened window.
func (d *Driver) GotoWindow(ctx context.Context, i int) error {
	pages, err := d.browser.Pages()
	if err != nil {
		return errors.Wrap(err, "failed to list windows")
	}
	if len(pages) == 0 {
		return errors.New("no windows open")
	}
	if i < 0 {
		i += len(pages)
	}
	if i < 0 || i >= len(pages) {
		return errors.Errorf("window index %d out of range (%d windows)", i, len(pages))
	}

	page := pages[i]
	if _, err := page.Activate(); err != nil {
		logger.Warn(ctx, "Failed to bring window %d to front: %v", i, err)
	}
	d.root = page
	d.frames = nil
	return nil
}

// CloseAll closes every window of the session.
func (d *Driver) CloseAll(ctx context.Context) error {
	pages, err := d.browser.Pages()
	if err != nil {
		return errors.Wrap(err, "failed to list windows")
	}
	for _, page := range pages {
		if err := page.Close(); err != nil {
			logger.Warn(ctx, "Failed to close window: %v", err)
		}
	}
	return nil
}

type frameStepKind int

const (
	frameUp frameStepKind = iota
	frameIndex
	frameName
)

type frameStep struct {
	kind  frameStepKind
	index int
	name  string
}

// parseFramePath splits a frame path into steps. A leading "/" makes the
// path absolute (reset to the window's top document first); "." and empty
// segments are no-ops; ".." pops one frame; a numeric segment selects the
// n-th iframe (0-indexed); anything else matches an iframe id or name.
func parseFramePath(path string) (absolute bool, steps []frameStep) {
	segs := strings.Split(path, "/")
	if len(segs) > 0 && segs[0] == "" {
		absolute = true
		segs = segs[1:]
	} else if len(segs) > 0 && segs[0] == "." {
		segs = segs[1:]
	}

	for _, seg := range segs {
		switch {
		case seg == "" || seg == ".":
		case seg == "..":
			steps = append(steps, frameStep{kind: frameUp})
		default:
			if n, err := strconv.Atoi(seg); err == nil {
				steps = append(steps, frameStep{kind: frameIndex, index: n})
			} else {
				steps = append(steps, frameStep{kind: frameName, name: seg})
			}
		}
	}
	return absolute, steps
}

// frameLocator builds the iframe lookup for one path step.
func frameLocator(step frameStep) string {
	if step.kind == frameIndex {
		return fmt.Sprintf("(//iframe)[%d]", step.index+1)
	}
	q := "'" + step.name + "'"
	return "//iframe[@id=" + q + " or @name=" + q + "]"
}

// GotoFrame walks the frame tree along path, e.g. "/checkout/payment",
// "./0", or "..". Each iframe lookup waits up to the driver's budget.
func (d *Driver) GotoFrame(ctx context.Context, path string) error {
	absolute, steps := parseFramePath(path)
	if absolute {
		d.frames = nil
	}

	for _, step := range steps {
		if step.kind == frameUp {
			if len(d.frames) > 0 {
				d.frames = d.frames[:len(d.frames)-1]
			}
			continue
		}

		locator := frameLocator(step)
		el, err := d.page().Timeout(d.timeout).ElementX(locator)
		if err != nil {
			return errors.Wrapf(err, "frame not found: %q in %s", locator, d.page().String())
		}
		frame, err := el.Frame()
		if err != nil {
			return errors.Wrapf(err, "failed to enter frame %q", locator)
		}
		d.frames = append(d.frames, frame)
	}
	return nil
}

// retry runs fn until it succeeds, the fault is non-transient, or the budget
// is spent; the last attempt's error is returned. Element actions go through
// this so that a mid-action re-render does not fail the script.
func (d *Driver) retry(ctx context.Context, fn func() error) error {
	deadline := time.Now().Add(d.timeout)
	for {
		err := fn()
		if err == nil {
			return nil
		}
		if !finder.IsTransient(err) {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return err
		}
		interval := d.poll
		if interval > remaining {
			interval = remaining
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
