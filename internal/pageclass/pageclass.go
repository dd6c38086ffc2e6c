// Package pageclass decides which titled sub-page a capture pertains to.
// Some applications reuse one container for a generic settings shell plus an
// inner sub-screen; the classifier picks the innermost title and the
// container to scan so the report does not mix both pages.
package pageclass

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// Kind is the coarse classification of the current page.
type Kind int

const (
	// Generic: no shell detected; scan the original root.
	Generic Kind = iota
	// TopShell: the shell's own top-level page (e.g. the settings hub).
	TopShell
	// Named: an inner sub-page, identified by its header text. Any header
	// text is a valid classification; there is no fixed page enum.
	Named
)

// Classification is the tagged result of one classify run.
type Classification struct {
	Kind  Kind
	Title string // set only for Named
}

func (c Classification) String() string {
	switch c.Kind {
	case TopShell:
		return "top-level-shell"
	case Named:
		return fmt.Sprintf("named-sub-page(%s)", c.Title)
	default:
		return "generic"
	}
}

// Positional heuristic band for header candidates when no id-matched header
// exists: text nodes within the top band whose rendered height looks like a
// title row.
const (
	headerBandTop       = 220
	headerMinHeight     = 40
	headerMaxHeight     = 120
	minShellTitleRows   = 3
	shellListIDHint     = "setting_list"
	shellRowTitleIDHint = "setting_title"
)

// Result carries the classification and the arena id of the container that
// subsequent scans should use. ScanRoot equals the original root unless a
// sub-page container substitution happened.
type Result struct {
	Class    Classification
	ScanRoot int
}

type Classifier struct {
	// ShellLabel is the shell's own generic title text (e.g. "設定"). A
	// header equal to it is never chosen as a sub-page title.
	ShellLabel string
	log        *zap.Logger
}

func New(shellLabel string, log *zap.Logger) *Classifier {
	return &Classifier{ShellLabel: shellLabel, log: log}
}

// Classify inspects the tree under root. The run is pure: re-running on the
// same snapshot yields the same classification and scan root.
func (c *Classifier) Classify(snap *uitree.Snapshot, root int) Result {
	out := Result{Class: Classification{Kind: Generic}, ScanRoot: root}
	if snap == nil || root < 0 {
		return out
	}

	// 1. The shell label itself must be on screen, otherwise this is an
	// ordinary page.
	if c.findHeaderWithTitle(snap, root, c.ShellLabel) < 0 {
		return out
	}

	// 2. Require actual shell furniture before trusting the label match: a
	// list container with a settings-list id, or several settings-row
	// titles.
	if !c.hasShellIndicators(snap, root) {
		return out
	}

	// 3. Every non-shell header is a sub-page title candidate.
	candidates := c.subPageHeaders(snap, root)
	if len(candidates) == 0 {
		out.Class = Classification{Kind: TopShell}
		return out
	}

	// 4. The innermost title wins, meaning the greatest bottom edge.
	winner := bottomMost(snap, candidates)
	title := strings.TrimSpace(snap.Node(winner).Text)

	// 5. Walk upward to the nearest ancestor that frames a whole page
	// (holds both a header-like and a scrollable descendant).
	container := c.containerFromHeader(snap, winner)
	if container < 0 {
		c.log.Debug("no page container above sub-page header, keeping original root",
			zap.String("title", title))
		out.Class = Classification{Kind: Named, Title: title}
		return out
	}

	out.Class = Classification{Kind: Named, Title: title}
	out.ScanRoot = container
	c.log.Debug("sub-page container substituted",
		zap.String("title", title),
		zap.Int("scanRoot", container))
	return out
}

// headerLike reports whether a node's view id marks it as a page title.
func headerLike(n *uitree.Node) bool {
	id := strings.ToLower(n.ViewID)
	return strings.Contains(id, "header_title") ||
		strings.Contains(id, "title") ||
		strings.Contains(id, "header")
}

func (c *Classifier) findHeaderWithTitle(snap *uitree.Snapshot, root int, title string) int {
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}
		if headerLike(n) && strings.TrimSpace(n.Text) == title {
			return id
		}
		queue = append(queue, n.Children...)
	}
	// No id-matched header; fall back to the positional band.
	if h := c.headerHeuristic(snap, root, ""); h >= 0 {
		if strings.TrimSpace(snap.Node(h).Text) == title {
			return h
		}
	}
	return -1
}

func (c *Classifier) hasShellIndicators(snap *uitree.Snapshot, root int) bool {
	listCount, rowCount := 0, 0
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}
		vid := strings.ToLower(n.ViewID)
		role := strings.ToLower(n.Role)
		if strings.Contains(vid, shellListIDHint) && strings.Contains(role, "recyclerview") {
			listCount++
		}
		if strings.Contains(vid, shellRowTitleIDHint) {
			rowCount++
		}
		queue = append(queue, n.Children...)
	}
	ok := listCount > 0 || rowCount >= minShellTitleRows
	c.log.Debug("shell indicator check",
		zap.Int("lists", listCount),
		zap.Int("rows", rowCount),
		zap.Bool("ok", ok))
	return ok
}

// subPageHeaders collects id-matched headers whose text is non-blank and not
// the shell label; if none exist it falls back to the positional heuristic.
func (c *Classifier) subPageHeaders(snap *uitree.Snapshot, root int) []int {
	var out []int
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}
		text := strings.TrimSpace(n.Text)
		// Settings rows carry title-suffixed ids too; they are list
		// entries, not page headers.
		rowTitle := strings.Contains(strings.ToLower(n.ViewID), shellRowTitleIDHint)
		if headerLike(n) && !rowTitle && text != "" && text != c.ShellLabel {
			out = append(out, id)
		}
		queue = append(queue, n.Children...)
	}
	if len(out) > 0 {
		return out
	}
	if h := c.headerHeuristic(snap, root, c.ShellLabel); h >= 0 {
		return []int{h}
	}
	return nil
}

// headerHeuristic finds a title candidate by position alone: a plain label
// inside the top band with a title-sized height. Among candidates the one
// with the greatest bottom edge wins. excludeText filters out the shell's
// own label; pass "" to keep everything.
func (c *Classifier) headerHeuristic(snap *uitree.Snapshot, root int, excludeText string) int {
	best, bestBottom := -1, -1
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}
		text := strings.TrimSpace(n.Text)
		if text != "" && strings.Contains(strings.ToLower(n.Role), "textview") {
			top, h := n.Bounds.Top, n.Bounds.Height
			if top >= 0 && top <= headerBandTop && h >= headerMinHeight && h <= headerMaxHeight {
				if excludeText == "" || text != excludeText {
					if n.Bounds.Bottom() > bestBottom {
						best, bestBottom = id, n.Bounds.Bottom()
					}
				}
			}
		}
		queue = append(queue, n.Children...)
	}
	return best
}

func bottomMost(snap *uitree.Snapshot, ids []int) int {
	best, bestBottom := -1, -1
	for _, id := range ids {
		if b := snap.Node(id).Bounds.Bottom(); b > bestBottom {
			best, bestBottom = id, b
		}
	}
	return best
}

// containerFromHeader walks parent indices upward from the header until an
// ancestor contains both a header-like and a scrollable descendant.
func (c *Classifier) containerFromHeader(snap *uitree.Snapshot, header int) int {
	cur := snap.Node(header).Parent
	for cur >= 0 {
		if c.hasHeaderAndScrollable(snap, cur) {
			return cur
		}
		cur = snap.Node(cur).Parent
	}
	return -1
}

func (c *Classifier) hasHeaderAndScrollable(snap *uitree.Snapshot, root int) bool {
	hasHeader, hasScrollable := false, false
	queue := []int{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}
		vid := strings.ToLower(n.ViewID)
		role := strings.ToLower(n.Role)
		if strings.Contains(vid, "header") || strings.Contains(vid, "title") {
			hasHeader = true
		}
		if n.Flags.Scrollable || strings.Contains(role, "scroll") || strings.Contains(role, "recycler") {
			hasScrollable = true
		}
		if hasHeader && hasScrollable {
			return true
		}
		queue = append(queue, n.Children...)
	}
	return false
}
