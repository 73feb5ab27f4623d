package browser

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/pkg/errors"
	"github.com/sunshower1127/swrod/finder"
	"github.com/sunshower1127/swrod/models"
	"github.com/sunshower1127/swrod/pkg/logger"
)

// Budget for probing one candidate context during diagnosis. Kept small so
// scanning a session with many windows and frames stays cheap.
const (
	probeTimeout = 1 * time.Second
	probePoll    = 100 * time.Millisecond

	maxFrameDepth = 5
)

// reportMiss runs the diagnostic companion on strict-lookup failures when
// debug mode is on. The original error is always returned unchanged.
func (d *Driver) reportMiss(ctx context.Context, err error) error {
	var nf *finder.NotFoundError
	if d.debug && errors.As(err, &nf) {
		d.diagnose(ctx, nf)
	}
	return err
}

// diagnose searches every open window and frame for the failed locator, logs
// where it was actually found, and journals the failure.
func (d *Driver) diagnose(ctx context.Context, nf *finder.NotFoundError) {
	logger.Warn(ctx, "Element not found: locator=%q scope=%s timeout=%s", nf.Locator, nf.Scope, nf.Timeout)

	contexts := d.searchContexts(ctx, nf.Locator)
	if len(contexts) == 0 {
		logger.Warn(ctx, "Locator not present in any open window or frame")
	}
	for _, c := range contexts {
		logger.Warn(ctx, "Locator found in another context, try: %s", c)
	}

	if d.journal == nil {
		return
	}
	rec := models.LookupFailure{
		TraceID:  logger.GetTraceID(ctx),
		Locator:  nf.Locator,
		Scope:    nf.Scope,
		Timeout:  nf.Timeout,
		Contexts: contexts,
	}
	if info, err := d.root.Info(); err == nil {
		rec.PageURL = info.URL
	}
	if err := d.journal.RecordFailure(rec); err != nil {
		logger.Warn(ctx, "Failed to journal lookup failure: %v", err)
	}
}

// searchContexts probes every window and its frame tree for the locator and
// returns navigation suggestions for the contexts that matched.
func (d *Driver) searchContexts(ctx context.Context, locator string) []string {
	pages, err := d.browser.Pages()
	if err != nil {
		logger.Warn(ctx, "Cannot list windows for diagnosis: %v", err)
		return nil
	}

	probe := finder.New(probeTimeout, probePoll)
	var found []string
	for i, page := range pages {
		if ok, _ := probe.Probe(ctx, finder.PageScope(page), locator); ok {
			found = append(found, fmt.Sprintf("GotoWindow(%d)", i))
		}
		found = append(found, d.searchFrames(ctx, probe, page, locator, i, "", 0)...)
	}
	return found
}

// searchFrames walks the iframe tree under page depth-first, probing each
// frame document for the locator. path accumulates the frame path segments
// used in the suggestion.
func (d *Driver) searchFrames(ctx context.Context, probe *finder.Finder, page *rod.Page, locator string, window int, path string, depth int) []string {
	if depth >= maxFrameDepth {
		return nil
	}

	iframes, err := page.ElementsX("//iframe")
	if err != nil {
		return nil
	}

	var found []string
	for j, iframe := range iframes {
		frame, err := iframe.Frame()
		if err != nil {
			continue
		}

		seg := frameSegment(iframe, j)
		framePath := seg
		if path != "" {
			framePath = path + "/" + seg
		}

		if ok, _ := probe.Probe(ctx, finder.PageScope(frame), locator); ok {
			found = append(found, fmt.Sprintf("GotoWindow(%d); GotoFrame(%q)", window, "/"+framePath))
		}
		found = append(found, d.searchFrames(ctx, probe, frame, locator, window, framePath, depth+1)...)
	}
	return found
}

// frameSegment names one iframe for a frame path: its id or name when it has
// one, its index otherwise.
func frameSegment(iframe *rod.Element, index int) string {
	if id, err := iframe.Attribute("id"); err == nil && id != nil && *id != "" {
		return *id
	}
	if name, err := iframe.Attribute("name"); err == nil && name != nil && *name != "" {
		return *name
	}
	return strconv.Itoa(index)
}
