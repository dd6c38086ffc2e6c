// Package assistant talks to the guidance backend: it sends the current
// screen summary plus the user's goal and turns the reply into a single
// displayable step, optionally with on-screen bounds to highlight.
package assistant

import (
	"context"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// ScreenInfo is the screen portion of a guidance request.
type ScreenInfo struct {
	SummaryText string `json:"summaryText"`
	TimestampMs int64  `json:"timestampMs"`
}

// Request is one guidance turn. UserMessage carries the free-form message
// for this turn and Goal the session goal, both verbatim as the user typed
// them.
type Request struct {
	UserMessage string     `json:"user_message"`
	Goal        string     `json:"goal"`
	ScreenInfo  ScreenInfo `json:"screen_info"`
}

// Result is the decoded guidance step. Bounds is non-nil when the reply
// embedded a highlight location.
type Result struct {
	Message string
	Bounds  *uitree.Rect
}

// Client produces one guidance step per request.
type Client interface {
	Advise(ctx context.Context, req Request) (*Result, error)
}
