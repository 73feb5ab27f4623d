package models

import (
	"time"
)

// LookupFailure is one journaled not-found outcome: everything needed to
// reproduce the lookup without re-deriving the locator by hand. Element
// references are never persisted, only their diagnostics.
type LookupFailure struct {
	ID      string        `json:"id"`
	TraceID string        `json:"trace_id,omitempty"`
	Locator string        `json:"locator"` // compiled XPath
	Scope   string        `json:"scope"`   // scope identity (page or element)
	PageURL string        `json:"page_url,omitempty"`
	Timeout time.Duration `json:"timeout"` // budget that was exhausted
	At      time.Time     `json:"at"`

	// Contexts holds window/frame paths where the context finder located the
	// locator after the failing scope came up empty.
	Contexts []string `json:"contexts,omitempty"`
}
