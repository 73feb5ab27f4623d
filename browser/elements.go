package browser

import (
	"context"

	"github.com/pkg/errors"
)

// Elements is a matched sequence in document order.
type Elements []*Element

// First returns the first element, or nil when the sequence is empty.
func (es Elements) First() *Element {
	if len(es) == 0 {
		return nil
	}
	return es[0]
}

// Empty reports whether the sequence has no elements.
func (es Elements) Empty() bool { return len(es) == 0 }

// Texts returns the rendered text of every element.
func (es Elements) Texts(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(es))
	for i, e := range es {
		text, err := e.Text(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, text)
	}
	return out, nil
}

// Attributes returns the named attribute of every element; entries are nil
// where the attribute is absent.
func (es Elements) Attributes(ctx context.Context, name string) ([]*string, error) {
	out := make([]*string, 0, len(es))
	for i, e := range es {
		val, err := e.Attribute(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, val)
	}
	return out, nil
}

// Click clicks every element in order.
func (es Elements) Click(ctx context.Context, methods ...ClickMethod) error {
	for i, e := range es {
		if err := e.Click(ctx, methods...); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

// Input writes the same text into every element.
func (es Elements) Input(ctx context.Context, text string) error {
	for i, e := range es {
		if err := e.Input(ctx, text); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

// InputEach writes texts[i] into the i-th element. Lengths must match.
func (es Elements) InputEach(ctx context.Context, texts []string) error {
	if len(texts) != len(es) {
		return errors.Errorf("got %d texts for %d elements", len(texts), len(es))
	}
	for i, e := range es {
		if err := e.Input(ctx, texts[i]); err != nil {
			return errors.Wrapf(err, "element %d", i)
		}
	}
	return nil
}

// Filter returns the elements for which keep returns true.
func (es Elements) Filter(keep func(*Element) bool) Elements {
	out := make(Elements, 0, len(es))
	for _, e := range es {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Up maps every element to its ancestor the given number of levels above.
func (es Elements) Up(ctx context.Context, levels int) (Elements, error) {
	out := make(Elements, 0, len(es))
	for i, e := range es {
		parent, err := e.Up(ctx, levels)
		if err != nil {
			return nil, errors.Wrapf(err, "element %d", i)
		}
		out = append(out, parent)
	}
	return out, nil
}
