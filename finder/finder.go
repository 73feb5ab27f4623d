// Package finder implements resilient element lookup over a rod session.
//
// A Finder repeatedly queries a Scope with a compiled locator until the page
// yields at least one match or the retry budget runs out. Four contracts are
// exposed; they share one poll loop and differ only in cardinality and in
// whether absence at the deadline is an error.
package finder

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/sunshower1127/swrod/pkg/logger"
	"github.com/sunshower1127/swrod/xpath"
)

// Defaults for the retry budget, matching the driver defaults.
const (
	DefaultTimeout = 5 * time.Second
	DefaultPoll    = 500 * time.Millisecond
)

type queryFunc func(locator string) (rod.Elements, error)

// Scope is the point in the rendered tree a lookup is evaluated from. It
// pairs the raw query primitive with the compilation anchor and a printable
// identity used in diagnostics.
type Scope struct {
	name   string
	anchor xpath.Scope
	query  queryFunc
}

// PageScope evaluates locators from the document root of a page.
func PageScope(p *rod.Page) Scope {
	return Scope{name: p.String(), anchor: xpath.Absolute, query: p.ElementsX}
}

// ElementScope evaluates locators relative to a previously found element.
func ElementScope(el *rod.Element) Scope {
	return Scope{name: el.String(), anchor: xpath.Relative, query: el.ElementsX}
}

// newScope is the seam tests use to script the query primitive per tick.
func newScope(name string, anchor xpath.Scope, query queryFunc) Scope {
	return Scope{name: name, anchor: anchor, query: query}
}

// Name returns the scope's printable identity.
func (s Scope) Name() string { return s.name }

// Finder holds the retry budget. Timeout zero means probe exactly once.
// The zero value is not useful; use New.
type Finder struct {
	Timeout time.Duration
	Poll    time.Duration
}

// New returns a Finder with the given budget. Non-positive poll intervals
// fall back to DefaultPoll; the loop never sleeps past the deadline, so the
// interval is effectively capped by the remaining budget.
func New(timeout, poll time.Duration) *Finder {
	if poll <= 0 {
		poll = DefaultPoll
	}
	return &Finder{Timeout: timeout, Poll: poll}
}

// FindOne returns the first match in document order, or *NotFoundError if
// nothing matched before the deadline.
func (f *Finder) FindOne(ctx context.Context, scope Scope, set *xpath.Set) (*rod.Element, error) {
	els, err := f.find(ctx, scope, set, true)
	if err != nil {
		return nil, err
	}
	return els.First(), nil
}

// FindOneOrNone returns the first match, or (nil, nil) if nothing matched
// before the deadline.
func (f *Finder) FindOneOrNone(ctx context.Context, scope Scope, set *xpath.Set) (*rod.Element, error) {
	els, err := f.find(ctx, scope, set, false)
	if err != nil {
		return nil, err
	}
	return els.First(), nil
}

// FindAll returns every match, or *NotFoundError if nothing matched before
// the deadline. The returned sequence is never empty.
func (f *Finder) FindAll(ctx context.Context, scope Scope, set *xpath.Set) (rod.Elements, error) {
	return f.find(ctx, scope, set, true)
}

// FindAllOrNone returns every match; absence at the deadline yields an empty
// sequence and no error.
func (f *Finder) FindAllOrNone(ctx context.Context, scope Scope, set *xpath.Set) (rod.Elements, error) {
	els, err := f.find(ctx, scope, set, false)
	if err != nil {
		return nil, err
	}
	if els == nil {
		els = rod.Elements{}
	}
	return els, nil
}

// Probe reports whether an already compiled locator matches anything in the
// scope within the budget. The diagnostic search uses this to test other
// windows and frames without recompiling the predicate set.
func (f *Finder) Probe(ctx context.Context, scope Scope, locator string) (bool, error) {
	els, err := f.poll(ctx, scope, locator)
	if err != nil {
		return false, err
	}
	return len(els) > 0, nil
}

// find compiles the locator once, runs the poll loop, and dispatches the
// outcome. strict selects NotFoundError over the empty outcome.
func (f *Finder) find(ctx context.Context, scope Scope, set *xpath.Set, strict bool) (rod.Elements, error) {
	locator, err := set.Compile(scope.anchor)
	if err != nil {
		return nil, err
	}
	logger.Debug(ctx, "find: locator=%q scope=%s timeout=%s", locator, scope.name, f.Timeout)

	els, err := f.poll(ctx, scope, locator)
	if err != nil {
		return nil, err
	}
	if len(els) == 0 && strict {
		return nil, &NotFoundError{Locator: locator, Scope: scope.name, Timeout: f.Timeout}
	}
	return els, nil
}

// poll ticks until the scope yields at least one element or the budget is
// spent. Transient faults from the session fold into an empty tick; any
// other error aborts immediately. The returned nil/empty slice with a nil
// error means the loop timed out with zero matches.
func (f *Finder) poll(ctx context.Context, scope Scope, locator string) (rod.Elements, error) {
	deadline := time.Now().Add(f.Timeout)

	for {
		els, err := scope.query(locator)
		if err != nil {
			if !IsTransient(err) {
				return nil, err
			}
			logger.Debug(ctx, "transient lookup fault on %s, retrying: %v", scope.name, err)
			els = nil
		}
		if len(els) > 0 {
			return els, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		interval := f.Poll
		if interval <= 0 {
			interval = DefaultPoll
		}
		if interval > remaining {
			interval = remaining
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}
