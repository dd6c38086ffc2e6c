package session

import (
	"context"

	"github.com/harry0816web/GrandmaHelper/internal/assistant"
	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// Overlay renders guidance to the user. All calls arrive from the session
// dispatcher goroutine, one at a time.
type Overlay interface {
	// ShowWaiting replaces the current content with a please-wait state.
	ShowWaiting()
	// ShowStep displays one instruction. ackable controls whether the
	// done-checkbox is offered; terminal messages are shown without it.
	ShowStep(text string, ackable bool)
	// ShowHighlight marks the on-screen region the step refers to.
	ShowHighlight(r uitree.Rect)
	ClearHighlight()
	// Hide removes the overlay from view so a capture sees the screen
	// underneath, without tearing the session down.
	Hide()
	// Dismiss tears the overlay down for good.
	Dismiss()
}

// CaptureProvider supplies the screen summary for one guidance turn. The
// session owns when to capture; the provider owns how.
type CaptureProvider interface {
	Capture(ctx context.Context) (assistant.ScreenInfo, error)
}
