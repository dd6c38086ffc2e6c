package uitree

import (
	"context"
	"errors"
)

// ErrNoWindow is returned when a source has no visible window to report.
var ErrNoWindow = errors.New("no window available")

// Source supplies live snapshots of the foreground application's element
// tree. Implementations must never report windows belonging to the
// assistant's own package: the capture would otherwise include our overlay
// and feed it back to the reasoning service.
type Source interface {
	// ActiveRoot snapshots the tree of the active (foreground) window.
	ActiveRoot(ctx context.Context) (*Snapshot, error)

	// Windows snapshots every visible window, foreground first. Used as a
	// fallback when the active window yields nothing usable.
	Windows(ctx context.Context) ([]*Snapshot, error)
}

// StaticSource serves fixed snapshots: ActiveRoot walks them in order and
// repeats the last one once exhausted, Windows reports the whole set. Used
// by tests and replays.
type StaticSource struct {
	Snaps []*Snapshot
	next  int
}

func NewStaticSource(snaps ...*Snapshot) *StaticSource {
	return &StaticSource{Snaps: snaps}
}

func (s *StaticSource) ActiveRoot(ctx context.Context) (*Snapshot, error) {
	if len(s.Snaps) == 0 {
		return nil, ErrNoWindow
	}
	snap := s.Snaps[s.next]
	if s.next < len(s.Snaps)-1 {
		s.next++
	}
	return snap, nil
}

func (s *StaticSource) Windows(ctx context.Context) ([]*Snapshot, error) {
	if len(s.Snaps) == 0 {
		return nil, ErrNoWindow
	}
	out := make([]*Snapshot, len(s.Snaps))
	copy(out, s.Snaps)
	return out, nil
}
