package summary

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

const (
	// DeepMaxDepth bounds the specialized pass by depth instead of item count.
	DeepMaxDepth = 30

	// chromeDepth: everything above this depth is always included so page
	// chrome (toolbars, headers) survives even when the tree is huge.
	chromeDepth = 10
)

// Category display quotas for the sectioned report.
const (
	quotaInteractive = 15
	quotaText        = 20
	quotaImage       = 10
	quotaButton      = 10
	quotaOther       = 8
)

// DeepSummarize runs the specialized pass for a known target application:
// depth-bounded traversal with no item cap, permissive at shallow depth,
// each element carrying its depth for indented rendering.
func (s *Summarizer) DeepSummarize(snap *uitree.Snapshot, root, maxDepth int) []Element {
	if maxDepth <= 0 {
		maxDepth = DeepMaxDepth
	}
	var items []Element
	s.deepWalk(snap, root, 0, maxDepth, &items)
	s.log.Debug("deep pass complete", zap.Int("items", len(items)))
	return items
}

func (s *Summarizer) deepWalk(snap *uitree.Snapshot, id, depth, maxDepth int, items *[]Element) {
	if depth > maxDepth {
		return
	}
	n := snap.Node(id)
	if n == nil {
		return
	}

	if !n.Bounds.Empty() {
		hasText := n.Text != ""
		interactive := n.Flags.Clickable || n.Flags.Editable || n.Flags.Checkable
		if hasText || interactive || depth < chromeDepth || s.importantContainer(n) {
			*items = append(*items, project(n, depth))
		}
	}

	for _, child := range n.Children {
		s.deepWalk(snap, child, depth+1, maxDepth, items)
	}
}

// importantContainer accepts list/scroll/layout containers large enough to
// frame actual content.
func (s *Summarizer) importantContainer(n *uitree.Node) bool {
	id := strings.ToLower(n.ViewID)
	role := strings.ToLower(n.Role)
	general := strings.Contains(id, "list") || strings.Contains(id, "recycler") || strings.Contains(id, "scroll") ||
		strings.Contains(role, "recyclerview") || strings.Contains(role, "listview") || strings.Contains(role, "scrollview") ||
		strings.Contains(role, "layout") || strings.Contains(role, "view") || strings.Contains(role, "group")
	return general && n.Bounds.Width > minContainerSize && n.Bounds.Height > minContainerSize
}

// PageInfo heads a sectioned report.
type PageInfo struct {
	Title       string
	TypeLabel   string
	Description string
}

// rank orders elements by importance before partitioning. Lower is better.
func rank(e Element) int {
	switch {
	case e.Flags.Clickable && e.Text != "":
		return 0
	case e.Flags.Editable:
		return 1
	case containsFold(e.Role, "TextView") && e.Text != "":
		return 2
	case containsFold(e.Role, "ImageView"):
		return 3
	case containsFold(e.Role, "Button"):
		return 4
	case e.Flags.Scrollable:
		return 5
	case e.Flags.Selected:
		return 6
	case e.Flags.Focused:
		return 7
	default:
		return 8
	}
}

// Compose partitions deep-pass elements into categories and assembles the
// human-readable sectioned report, each category capped at its display
// quota with an explicit note for the overflow.
func Compose(items []Element, info PageInfo) string {
	sorted := make([]Element, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return rank(sorted[i]) < rank(sorted[j]) })

	var interactive, text, image, button, other []Element
	for _, it := range sorted {
		switch {
		case it.Flags.Clickable && it.Text != "":
			interactive = append(interactive, it)
		case containsFold(it.Role, "TextView") && it.Text != "":
			text = append(text, it)
		case containsFold(it.Role, "ImageView"):
			image = append(image, it)
		case containsFold(it.Role, "Button"):
			button = append(button, it)
		case it.Flags.Scrollable || it.Flags.Selected || it.Flags.Focused:
			other = append(other, it)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📱 頁面資訊\n頁面標題: %s\n掃描項目: %d 個 (已過濾)\n\n", info.Title, len(sorted))
	b.WriteString("🎯 === 當前頁面內容分析 ===\n")

	section(&b, "🖱️ === 可點擊元素", interactive, quotaInteractive, "可點擊元素")
	section(&b, "📝 === 文字內容", text, quotaText, "文字元素")
	section(&b, "🖼️ === 圖片元素", image, quotaImage, "圖片元素")
	section(&b, "🔘 === 按鈕元素", button, quotaButton, "按鈕元素")
	section(&b, "🔧 === 重要其他元素", other, quotaOther, "重要元素")

	if info.TypeLabel != "" {
		fmt.Fprintf(&b, "\n📱 === %s ===\n", info.TypeLabel)
		if info.Description != "" {
			b.WriteString(info.Description)
			if !strings.HasSuffix(info.Description, "\n") {
				b.WriteString("\n")
			}
		}
	}
	return b.String()
}

func section(b *strings.Builder, header string, items []Element, quota int, noun string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d 項) ===\n", header, len(items))
	shown := items
	if len(shown) > quota {
		shown = shown[:quota]
	}
	for i, it := range shown {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(it.Line())
	}
	b.WriteString("\n")
	if len(items) > quota {
		fmt.Fprintf(b, "... 還有 %d 個%s\n", len(items)-quota, noun)
	}
}
