// Package uitree holds immutable snapshots of a foreign application's UI
// element tree. A snapshot is an arena of nodes indexed by integer id, with
// parent/child relationships stored as index pairs, so upward walks never
// touch live accessibility objects.
package uitree

import (
	"fmt"
	"strings"
	"time"
)

// Rect is a node's on-screen bounds in device pixels.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

func (r Rect) Right() int  { return r.Left + r.Width }
func (r Rect) Bottom() int { return r.Top + r.Height }

// Empty reports whether the rect has no visible area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// String renders the bounds in the @(left,top,widthxheight) wire format.
func (r Rect) String() string {
	return fmt.Sprintf("@(%d,%d,%dx%d)", r.Left, r.Top, r.Width, r.Height)
}

// Flags is the interaction flag set of one node.
type Flags struct {
	Clickable     bool
	Checkable     bool
	Editable      bool
	Scrollable    bool
	Selected      bool
	Focused       bool
	LongClickable bool
}

// Any reports whether at least one flag is set.
func (f Flags) Any() bool {
	return f.Clickable || f.Checkable || f.Editable || f.Scrollable ||
		f.Selected || f.Focused || f.LongClickable
}

// List returns the set flags as tag strings, in display order.
func (f Flags) List() []string {
	var tags []string
	if f.Clickable {
		tags = append(tags, "clickable")
	}
	if f.Editable {
		tags = append(tags, "editable")
	}
	if f.Checkable {
		tags = append(tags, "checkable")
	}
	if f.Scrollable {
		tags = append(tags, "scrollable")
	}
	if f.Selected {
		tags = append(tags, "selected")
	}
	if f.LongClickable {
		tags = append(tags, "longClickable")
	}
	if f.Focused {
		tags = append(tags, "focused")
	}
	return tags
}

// Node is one UI element inside a snapshot. ID is the arena index; Parent is
// -1 for the root. Text carries the display text, accessible label or hint,
// whichever the source found first.
type Node struct {
	ID       int
	ViewID   string
	Text     string
	Role     string
	Bounds   Rect
	Flags    Flags
	Parent   int
	Children []int
}

// ShortViewID strips the package prefix from an Android-style resource id
// ("jp.naver.line.android:id/header_title" -> "header_title").
func (n *Node) ShortViewID() string {
	if i := strings.LastIndex(n.ViewID, "/"); i >= 0 {
		return n.ViewID[i+1:]
	}
	return n.ViewID
}

// ShortRole strips the package path from a fully qualified role/class name.
func (n *Node) ShortRole() string {
	if i := strings.LastIndex(n.Role, "."); i >= 0 {
		return n.Role[i+1:]
	}
	return n.Role
}

// Snapshot is one capture of a window's element tree. It is valid
// independently of the live tree it was read from and must not be mutated
// after Build.
type Snapshot struct {
	Package    string
	CapturedAt time.Time
	Viewport   Rect
	nodes      []Node
}

// Len returns the number of nodes in the arena.
func (s *Snapshot) Len() int { return len(s.nodes) }

// Node returns the node with the given arena id. The returned pointer is
// into the arena; callers must treat it as read-only.
func (s *Snapshot) Node(id int) *Node {
	if id < 0 || id >= len(s.nodes) {
		return nil
	}
	return &s.nodes[id]
}

// Root returns the arena id of the root node, or -1 for an empty snapshot.
func (s *Snapshot) Root() int {
	if len(s.nodes) == 0 {
		return -1
	}
	return 0
}

// Builder assembles one snapshot. Nodes are added parent-first; the first
// node added becomes the root.
type Builder struct {
	snap Snapshot
}

func NewBuilder(pkg string) *Builder {
	return &Builder{snap: Snapshot{Package: pkg, CapturedAt: time.Now()}}
}

// SetViewport records the visible screen area for the capture.
func (b *Builder) SetViewport(r Rect) { b.snap.Viewport = r }

// SetCapturedAt overrides the capture timestamp (fixtures and replays).
func (b *Builder) SetCapturedAt(t time.Time) { b.snap.CapturedAt = t }

// Add appends a node under parent (-1 for the root) and returns its arena id.
func (b *Builder) Add(parent int, n Node) int {
	id := len(b.snap.nodes)
	n.ID = id
	n.Parent = parent
	n.Children = nil
	b.snap.nodes = append(b.snap.nodes, n)
	if parent >= 0 && parent < id {
		b.snap.nodes[parent].Children = append(b.snap.nodes[parent].Children, id)
	}
	return id
}

// Build finalizes the snapshot. The builder must not be reused.
func (b *Builder) Build() *Snapshot {
	s := b.snap
	b.snap = Snapshot{}
	return &s
}
