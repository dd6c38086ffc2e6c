// Package summary condenses a UI tree snapshot into the textual report sent
// to the reasoning service.
package summary

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// minContainerSize is the minimum width and height (device px) for a bare
// container to still count as interesting.
const minContainerSize = 20

// Element is the projection of one accepted node. Immutable once produced.
type Element struct {
	Text   string
	ViewID string
	Role   string
	Flags  uitree.Flags
	Bounds uitree.Rect
	Depth  int
}

// Line renders the element as a single report line, indented by depth.
func (e Element) Line() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", e.Depth))
	if e.Text != "" {
		fmt.Fprintf(&b, "• %q", e.Text)
	} else {
		b.WriteString("• (no text)")
	}
	if e.ViewID != "" {
		fmt.Fprintf(&b, "  [id=%s]", e.ViewID)
	}
	if e.Role != "" {
		fmt.Fprintf(&b, "  <%s>", e.Role)
	}
	if tags := e.Flags.List(); len(tags) > 0 {
		fmt.Fprintf(&b, "  {%s}", strings.Join(tags, ","))
	}
	b.WriteString("  ")
	b.WriteString(e.Bounds.String())
	return b.String()
}

// Report is the result of one generic capture pass.
type Report struct {
	Items []Element
	Max   int
}

// String renders the count header followed by one line per element.
func (r *Report) String() string {
	lines := make([]string, 0, len(r.Items)+1)
	lines = append(lines, fmt.Sprintf("Captured elements: %d (showing up to %d)", len(r.Items), r.Max))
	for _, it := range r.Items {
		lines = append(lines, it.Line())
	}
	return strings.Join(lines, "\n")
}

type Summarizer struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Summarizer {
	return &Summarizer{log: log}
}

// Summarize walks the tree breadth-first from root and accepts up to
// maxItems interesting elements. Shallower elements win when the cap
// truncates the walk; the walk stops once maxItems elements are accepted,
// not once maxItems nodes are visited.
func (s *Summarizer) Summarize(snap *uitree.Snapshot, root, maxItems int) *Report {
	rep := &Report{Max: maxItems}
	if snap == nil || root < 0 {
		return rep
	}

	queue := []int{root}
	for len(queue) > 0 && len(rep.Items) < maxItems {
		id := queue[0]
		queue = queue[1:]
		n := snap.Node(id)
		if n == nil {
			continue
		}

		if !n.Bounds.Empty() && s.include(n) {
			rep.Items = append(rep.Items, project(n, 0))
		}
		queue = append(queue, n.Children...)
	}

	s.log.Debug("generic pass complete",
		zap.Int("accepted", len(rep.Items)),
		zap.Int("max", maxItems))
	return rep
}

// include is the inclusion predicate for the generic pass.
func (s *Summarizer) include(n *uitree.Node) bool {
	if n.Text != "" {
		return true
	}
	if n.ViewID != "" {
		return true
	}
	if n.Flags.Any() {
		return true
	}
	if importantRole(n.Role) {
		return true
	}
	// A sizable container with children is still worth reporting: it tells
	// the reasoning service what region of the screen it is looking at.
	if len(n.Children) > 0 && n.Bounds.Width > minContainerSize && n.Bounds.Height > minContainerSize {
		return true
	}
	return false
}

var importantRoles = []string{
	"Button", "TextView", "EditText", "ImageView",
	"RecyclerView", "ListView", "TabHost", "ViewPager",
	"LinearLayout", "FrameLayout", "RelativeLayout", "ConstraintLayout",
	"ScrollView", "NestedScrollView", "CardView", "ViewGroup", "View",
}

func importantRole(role string) bool {
	for _, r := range importantRoles {
		if containsFold(role, r) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func project(n *uitree.Node, depth int) Element {
	return Element{
		Text:   n.Text,
		ViewID: n.ShortViewID(),
		Role:   n.ShortRole(),
		Flags:  n.Flags,
		Bounds: n.Bounds,
		Depth:  depth,
	}
}
