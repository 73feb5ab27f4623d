package finder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
)

// NotFoundError is returned by the strict contracts when no element matched
// before the deadline. It carries the compiled locator and the scope's
// identity so a failure is diagnosable without re-deriving the locator.
type NotFoundError struct {
	Locator string
	Scope   string
	Timeout time.Duration
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("element not found: locator=%q scope=%s (after %s)", e.Locator, e.Scope, e.Timeout)
}

// Devtools messages for a node detached from the render tree. A lookup that
// races a re-render hits these between the old node disappearing and the new
// one attaching.
var staleMessages = []string{
	"Cannot find context with specified id",
	"Node with given id does not belong to the document",
	"Could not find node with given id",
	"No node with given id found",
	"Object couldn't be returned by value",
}

// IsTransient reports whether a session error signals transient absence
// (staleness) rather than a broken session. Transient faults are absorbed
// into the poll loop as an empty tick; everything else propagates.
func IsTransient(err error) bool {
	var elNotFound *rod.ElementNotFoundError
	if errors.As(err, &elNotFound) {
		return true
	}
	var objNotFound *rod.ObjectNotFoundError
	if errors.As(err, &objNotFound) {
		return true
	}
	var cdpErr *cdp.Error
	if errors.As(err, &cdpErr) {
		for _, msg := range staleMessages {
			if strings.Contains(cdpErr.Message, msg) {
				return true
			}
		}
	}
	return false
}
