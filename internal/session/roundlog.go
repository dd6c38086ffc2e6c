package session

import (
	"fmt"
	"strings"
)

// RoundLog keeps a short history of guidance rounds and notices when the
// backend keeps issuing the same instruction, which usually means the user
// is stuck or the screen never changed.
type RoundLog struct {
	lines    []string
	maxLines int

	lastKey     string
	repeatCount int
	threshold   int

	trace []string
}

func NewRoundLog(maxLines, threshold int) *RoundLog {
	if maxLines <= 0 {
		maxLines = 5
	}
	if threshold <= 1 {
		threshold = 2
	}
	return &RoundLog{maxLines: maxLines, threshold: threshold}
}

func roundKey(message string) string {
	return strings.TrimSpace(message)
}

// Add records one completed round.
func (l *RoundLog) Add(round int, kind ReplyKind, message string) {
	line := fmt.Sprintf("round=%d kind=%d message=%q", round, kind, message)
	l.lines = append(l.lines, line)
	if len(l.lines) > l.maxLines {
		l.lines = l.lines[len(l.lines)-l.maxLines:]
	}
	l.trace = append(l.trace, line)

	key := roundKey(message)
	if key == l.lastKey {
		l.repeatCount++
	} else {
		l.lastKey = key
		l.repeatCount = 1
	}
}

// Stuck returns a note for the backend when the same instruction has been
// issued threshold times in a row.
func (l *RoundLog) Stuck() (bool, string) {
	if l.repeatCount >= l.threshold {
		note := fmt.Sprintf(
			"系統提示：同一個步驟已連續出現 %d 次，畫面可能沒有變化。請確認上一步是否正確，或改用其他方式說明。",
			l.repeatCount,
		)
		return true, note
	}
	return false, ""
}

// Recent returns the bounded history lines.
func (l *RoundLog) Recent() []string {
	if len(l.lines) == 0 {
		return nil
	}
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Trace returns every recorded round, for the final report.
func (l *RoundLog) Trace() []string {
	out := make([]string, len(l.trace))
	copy(out, l.trace)
	return out
}
