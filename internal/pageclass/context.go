package pageclass

import (
	"strings"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// Context probes answer coarse "where are we" questions by looking for
// well-known view ids. They never affect the scan root; they only feed the
// display label.

func containsID(snap *uitree.Snapshot, root int, hint string) bool {
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}
		if strings.Contains(strings.ToLower(n.ViewID), hint) {
			return true
		}
		queue = append(queue, n.Children...)
	}
	return false
}

func selectedWithID(snap *uitree.Snapshot, root int, hint string) bool {
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}
		if n.Flags.Selected && strings.Contains(strings.ToLower(n.ViewID), hint) {
			return true
		}
		queue = append(queue, n.Children...)
	}
	return false
}

// IsShellContext reports whether any shell indicator is visible at all.
func (c *Classifier) IsShellContext(snap *uitree.Snapshot, root int) bool {
	return c.hasShellIndicators(snap, root)
}

// IsHomeContext reports whether the bottom navigation bar is visible,
// meaning one of the top-level tabs is showing.
func (c *Classifier) IsHomeContext(snap *uitree.Snapshot, root int) bool {
	return containsID(snap, root, "bnb_button_clickable_area")
}

// IsChatTabSelected reports whether the chat tab of the bottom bar is the
// selected one.
func (c *Classifier) IsChatTabSelected(snap *uitree.Snapshot, root int) bool {
	return selectedWithID(snap, root, "chat")
}

// IsHomeTabSelected reports whether the home tab of the bottom bar is the
// selected one.
func (c *Classifier) IsHomeTabSelected(snap *uitree.Snapshot, root int) bool {
	return selectedWithID(snap, root, "home_tab")
}

// IsChatContext reports whether the conversation list itself is on screen.
func (c *Classifier) IsChatContext(snap *uitree.Snapshot, root int) bool {
	return containsID(snap, root, "chat_list_recycler_view")
}

// DisplayPageType renders the human-facing page label used in report headers.
func (c *Classifier) DisplayPageType(snap *uitree.Snapshot, root int, class Classification) string {
	switch class.Kind {
	case Named:
		return class.Title + "設定"
	case TopShell:
		return "設定主頁"
	}
	if c.IsChatContext(snap, root) || c.IsChatTabSelected(snap, root) {
		return "聊天頁面"
	}
	if c.IsHomeContext(snap, root) {
		return "主頁"
	}
	return "一般頁面"
}
