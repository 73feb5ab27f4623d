package browser

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/sunshower1127/swrod/finder"
	"github.com/sunshower1127/swrod/xpath"
)

// findable carries the four lookup contracts for anything that can act as a
// search scope. Driver embeds it scoped to the active page, Element scoped
// to itself.
type findable struct {
	drv   *Driver
	scope func() finder.Scope
}

// Find returns the first match, waiting up to the driver's budget. A miss is
// an error; with debug on, the miss is diagnosed first.
func (f findable) Find(ctx context.Context, set *xpath.Set) (*Element, error) {
	el, err := f.drv.finder().FindOne(ctx, f.scope(), set)
	if err != nil {
		return nil, f.drv.reportMiss(ctx, err)
	}
	return newElement(f.drv, el), nil
}

// FindOrNone returns the first match, or nil without error when nothing
// appeared before the deadline.
func (f findable) FindOrNone(ctx context.Context, set *xpath.Set) (*Element, error) {
	el, err := f.drv.finder().FindOneOrNone(ctx, f.scope(), set)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, nil
	}
	return newElement(f.drv, el), nil
}

// FindAll returns every match. A miss is an error; the result is never empty.
func (f findable) FindAll(ctx context.Context, set *xpath.Set) (Elements, error) {
	els, err := f.drv.finder().FindAll(ctx, f.scope(), set)
	if err != nil {
		return nil, f.drv.reportMiss(ctx, err)
	}
	return wrapElements(f.drv, els), nil
}

// FindAllOrNone returns every match; a miss yields an empty, non-nil slice.
func (f findable) FindAllOrNone(ctx context.Context, set *xpath.Set) (Elements, error) {
	els, err := f.drv.finder().FindAllOrNone(ctx, f.scope(), set)
	if err != nil {
		return nil, err
	}
	return wrapElements(f.drv, els), nil
}

func wrapElements(drv *Driver, els rod.Elements) Elements {
	out := make(Elements, 0, len(els))
	for _, el := range els {
		out = append(out, newElement(drv, el))
	}
	return out
}
