package main

import (
	"fmt"
	"io"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// consoleOverlay renders guidance to the terminal. It stands in for the
// floating bubble a phone build would draw.
type consoleOverlay struct {
	w io.Writer
}

func newConsoleOverlay(w io.Writer) *consoleOverlay {
	return &consoleOverlay{w: w}
}

func (o *consoleOverlay) ShowWaiting() {
	fmt.Fprintln(o.w, "⏳ 請稍候…")
}

func (o *consoleOverlay) ShowStep(text string, ackable bool) {
	fmt.Fprintln(o.w)
	fmt.Fprintf(o.w, "👉 %s\n", text)
	if ackable {
		fmt.Fprintln(o.w, "   (完成後按 Enter 確認，輸入 q 結束)")
	}
}

func (o *consoleOverlay) ShowHighlight(r uitree.Rect) {
	fmt.Fprintf(o.w, "📍 位置 %s\n", r)
}

func (o *consoleOverlay) ClearHighlight() {}

func (o *consoleOverlay) Hide() {}

func (o *consoleOverlay) Dismiss() {
	fmt.Fprintln(o.w, "👋 已結束指引")
}
