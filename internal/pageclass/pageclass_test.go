package pageclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

const linePkg = "jp.naver.line.android"

func rect(l, t, w, h int) uitree.Rect {
	return uitree.Rect{Left: l, Top: t, Width: w, Height: h}
}

// shellTree builds a settings shell: shell header plus a settings list with
// enough row titles to satisfy the indicators. addSub optionally nests a
// sub-page container with its own header and scrollable list.
func shellTree(addSub bool) (*uitree.Snapshot, int) {
	b := uitree.NewBuilder(linePkg)
	root := b.Add(-1, uitree.Node{Role: "android.widget.FrameLayout", Bounds: rect(0, 0, 1080, 2340)})

	b.Add(root, uitree.Node{
		Text:   "設定",
		ViewID: linePkg + ":id/header_title",
		Role:   "android.widget.TextView",
		Bounds: rect(40, 100, 300, 80),
	})
	list := b.Add(root, uitree.Node{
		ViewID: linePkg + ":id/setting_list",
		Role:   "androidx.recyclerview.widget.RecyclerView",
		Flags:  uitree.Flags{Scrollable: true},
		Bounds: rect(0, 200, 1080, 2000),
	})
	for i, title := range []string{"個人檔案", "聊天", "隱私"} {
		top := 240 + i*140
		row := b.Add(list, uitree.Node{Role: "android.widget.LinearLayout", Bounds: rect(0, top, 1080, 120)})
		b.Add(row, uitree.Node{
			Text:   title,
			ViewID: linePkg + ":id/setting_title",
			Role:   "android.widget.TextView",
			Bounds: rect(40, top+20, 400, 80),
		})
	}

	sub := -1
	if addSub {
		sub = b.Add(root, uitree.Node{Role: "android.widget.FrameLayout", Bounds: rect(0, 0, 1080, 2340)})
		b.Add(sub, uitree.Node{
			Text:   "聊天",
			ViewID: linePkg + ":id/header_title",
			Role:   "android.widget.TextView",
			Bounds: rect(40, 380, 300, 70),
		})
		b.Add(sub, uitree.Node{
			ViewID: linePkg + ":id/sub_scroll",
			Role:   "android.widget.ScrollView",
			Flags:  uitree.Flags{Scrollable: true},
			Bounds: rect(0, 460, 1080, 1800),
		})
	}

	snap := b.Build()
	return snap, sub
}

func TestClassifyGenericWithoutShell(t *testing.T) {
	b := uitree.NewBuilder(linePkg)
	root := b.Add(-1, uitree.Node{Role: "android.widget.FrameLayout", Bounds: rect(0, 0, 1080, 2340)})
	b.Add(root, uitree.Node{Text: "聊天", Role: "android.widget.TextView", Bounds: rect(0, 100, 200, 60)})
	snap := b.Build()

	c := New("設定", zap.NewNop())
	res := c.Classify(snap, snap.Root())
	assert.Equal(t, Generic, res.Class.Kind)
	assert.Equal(t, snap.Root(), res.ScanRoot)
}

func TestClassifyTopShell(t *testing.T) {
	snap, _ := shellTree(false)
	c := New("設定", zap.NewNop())

	res := c.Classify(snap, snap.Root())
	assert.Equal(t, TopShell, res.Class.Kind)
	assert.Equal(t, snap.Root(), res.ScanRoot)
}

func TestClassifyNamedSubPage(t *testing.T) {
	snap, sub := shellTree(true)
	c := New("設定", zap.NewNop())

	res := c.Classify(snap, snap.Root())
	require.Equal(t, Named, res.Class.Kind)
	assert.Equal(t, "聊天", res.Class.Title)
	assert.Equal(t, sub, res.ScanRoot)
}

func TestClassifyIdempotent(t *testing.T) {
	snap, _ := shellTree(true)
	c := New("設定", zap.NewNop())

	first := c.Classify(snap, snap.Root())
	second := c.Classify(snap, snap.Root())
	assert.Equal(t, first, second)
}

func TestClassifyLowestHeaderWins(t *testing.T) {
	b := uitree.NewBuilder(linePkg)
	root := b.Add(-1, uitree.Node{Role: "android.widget.FrameLayout", Bounds: rect(0, 0, 1080, 2340)})

	b.Add(root, uitree.Node{
		Text:   "設定",
		ViewID: linePkg + ":id/header_title",
		Role:   "android.widget.TextView",
		Bounds: rect(40, 100, 300, 80),
	})
	b.Add(root, uitree.Node{
		ViewID: linePkg + ":id/setting_list",
		Role:   "androidx.recyclerview.widget.RecyclerView",
		Flags:  uitree.Flags{Scrollable: true},
		Bounds: rect(0, 200, 1080, 2000),
	})
	// Two stacked sub-page headers: the lower one belongs to the
	// innermost page.
	b.Add(root, uitree.Node{
		Text:   "聊天",
		ViewID: linePkg + ":id/header_title",
		Role:   "android.widget.TextView",
		Bounds: rect(40, 240, 300, 60), // bottom 300
	})
	b.Add(root, uitree.Node{
		Text:   "字型",
		ViewID: linePkg + ":id/header_title",
		Role:   "android.widget.TextView",
		Bounds: rect(40, 390, 300, 60), // bottom 450
	})
	snap := b.Build()

	c := New("設定", zap.NewNop())
	res := c.Classify(snap, snap.Root())
	require.Equal(t, Named, res.Class.Kind)
	assert.Equal(t, "字型", res.Class.Title)
}

func TestShellLabelNeverBecomesTitle(t *testing.T) {
	snap, _ := shellTree(false)
	c := New("設定", zap.NewNop())

	res := c.Classify(snap, snap.Root())
	assert.NotEqual(t, "設定", res.Class.Title)
}

func TestHeaderHeuristicBand(t *testing.T) {
	c := New("設定", zap.NewNop())

	b := uitree.NewBuilder(linePkg)
	root := b.Add(-1, uitree.Node{Role: "android.widget.FrameLayout", Bounds: rect(0, 0, 1080, 2340)})
	// Inside the band with a title-sized height.
	in := b.Add(root, uitree.Node{Text: "聊天", Role: "android.widget.TextView", Bounds: rect(40, 150, 300, 70)})
	// Too tall, too low: both out.
	b.Add(root, uitree.Node{Text: "巨大", Role: "android.widget.TextView", Bounds: rect(40, 100, 300, 400)})
	b.Add(root, uitree.Node{Text: "太低", Role: "android.widget.TextView", Bounds: rect(40, 900, 300, 70)})
	snap := b.Build()

	got := c.headerHeuristic(snap, snap.Root(), "")
	assert.Equal(t, in, got)
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "generic", Classification{Kind: Generic}.String())
	assert.Equal(t, "top-level-shell", Classification{Kind: TopShell}.String())
	assert.Equal(t, "named-sub-page(聊天)", Classification{Kind: Named, Title: "聊天"}.String())
}
