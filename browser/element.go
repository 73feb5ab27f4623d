package browser

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/sunshower1127/swrod/finder"
)

// ClickMethod selects how a click is delivered.
type ClickMethod string

const (
	// ClickMouse dispatches a real left-button mouse click.
	ClickMouse ClickMethod = "mouse"
	// ClickJS calls the element's click() handler directly, bypassing
	// hit-testing. Works on elements covered by overlays.
	ClickJS ClickMethod = "js"
	// ClickEnter focuses the element and presses Enter.
	ClickEnter ClickMethod = "enter"
)

// SelectBy selects how a dropdown option is matched.
type SelectBy string

const (
	SelectByIndex SelectBy = "index"
	SelectByValue SelectBy = "value"
	SelectByText  SelectBy = "text"
)

// Element wraps one matched node. It embeds findable scoped to itself, so
// nested lookups compile relative locators anchored at this node.
type Element struct {
	findable

	el  *rod.Element
	drv *Driver
}

func newElement(drv *Driver, el *rod.Element) *Element {
	e := &Element{el: el, drv: drv}
	e.findable = findable{drv: drv, scope: func() finder.Scope {
		return finder.ElementScope(e.el)
	}}
	return e
}

// Rod exposes the underlying rod element for calls not wrapped here.
func (e *Element) Rod() *rod.Element { return e.el }

// Click delivers a click. Methods defaults to ClickMouse; passing several
// tries each in order until one lands. Transient staleness is retried within
// the driver's budget.
func (e *Element) Click(ctx context.Context, methods ...ClickMethod) error {
	if len(methods) == 0 {
		methods = []ClickMethod{ClickMouse}
	}
	return e.drv.retry(ctx, func() error {
		var err error
		for _, m := range methods {
			switch m {
			case ClickJS:
				_, err = e.el.Eval(`() => this.click()`)
			case ClickEnter:
				err = e.el.Type(input.Enter)
			default:
				err = e.el.Click(proto.InputMouseButtonLeft, 1)
			}
			if err == nil {
				return nil
			}
		}
		return errors.Wrap(err, "click failed")
	})
}

// Input replaces the element's content with text. Existing content is
// selected first so the write is not an append.
func (e *Element) Input(ctx context.Context, text string) error {
	return e.drv.retry(ctx, func() error {
		if err := e.el.SelectAllText(); err != nil {
			return errors.Wrap(err, "failed to select existing text")
		}
		if err := e.el.Input(text); err != nil {
			return errors.Wrap(err, "failed to input text")
		}
		return nil
	})
}

// Select picks an option in a <select> element.
func (e *Element) Select(ctx context.Context, by SelectBy, value string) error {
	return e.drv.retry(ctx, func() error {
		switch by {
		case SelectByIndex:
			_, err := e.el.Eval(fmt.Sprintf(
				`() => { this.selectedIndex = %s; this.dispatchEvent(new Event('change', {bubbles: true})); }`,
				value,
			))
			return errors.Wrapf(err, "failed to select index %s", value)
		case SelectByValue:
			err := e.el.Select([]string{fmt.Sprintf("option[value=%q]", value)}, true, rod.SelectorTypeCSSSector)
			return errors.Wrapf(err, "failed to select value %q", value)
		case SelectByText:
			err := e.el.Select([]string{value}, true, rod.SelectorTypeText)
			return errors.Wrapf(err, "failed to select text %q", value)
		default:
			return errors.Errorf("unknown select mode %q", by)
		}
	})
}

// Up returns the ancestor the given number of levels above this element.
func (e *Element) Up(ctx context.Context, levels int) (*Element, error) {
	if levels < 1 {
		return nil, errors.Errorf("levels must be positive, got %d", levels)
	}
	steps := make([]string, levels)
	for i := range steps {
		steps[i] = ".."
	}
	parent, err := e.el.ElementX(strings.Join(steps, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "no ancestor %d levels up", levels)
	}
	return newElement(e.drv, parent), nil
}

// Text returns the element's rendered text.
func (e *Element) Text(ctx context.Context) (string, error) {
	var text string
	err := e.drv.retry(ctx, func() error {
		var err error
		text, err = e.el.Text()
		return err
	})
	return text, errors.Wrap(err, "failed to read text")
}

// Attribute returns the named attribute, or nil when absent.
func (e *Element) Attribute(ctx context.Context, name string) (*string, error) {
	var val *string
	err := e.drv.retry(ctx, func() error {
		var err error
		val, err = e.el.Attribute(name)
		return err
	})
	return val, errors.Wrapf(err, "failed to read attribute %q", name)
}

// HTML returns the element's outer HTML.
func (e *Element) HTML(ctx context.Context) (string, error) {
	var html string
	err := e.drv.retry(ctx, func() error {
		var err error
		html, err = e.el.HTML()
		return err
	})
	return html, errors.Wrap(err, "failed to read html")
}

// Markdown returns the element's content converted to markdown, which is a
// compact shape for feeding page content to text pipelines.
func (e *Element) Markdown(ctx context.Context) (string, error) {
	html, err := e.HTML(ctx)
	if err != nil {
		return "", err
	}
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", errors.Wrap(err, "failed to convert html to markdown")
	}
	return strings.TrimSpace(markdown), nil
}

// Hover moves the pointer over the element.
func (e *Element) Hover(ctx context.Context) error {
	return e.drv.retry(ctx, func() error {
		return e.el.Hover()
	})
}
