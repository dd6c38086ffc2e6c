package session

import "strings"

// Sentinels are the phrases the backend embeds to signal a terminal or
// degenerate reply. Matching is substring-based because backends decorate
// the phrases with emoji and punctuation.
type Sentinels struct {
	Success string
	Unclear string
	Closed  string
}

func DefaultSentinels() Sentinels {
	return Sentinels{
		Success: "恭喜成功",
		Unclear: "您的輸入沒有明確目的",
		Closed:  "已關閉任務",
	}
}

// ReplyKind classifies one backend reply.
type ReplyKind int

const (
	ReplyStep ReplyKind = iota
	ReplySuccess
	ReplyUnclear
	ReplyClosed
)

func (s Sentinels) Classify(message string) ReplyKind {
	switch {
	case s.Success != "" && strings.Contains(message, s.Success):
		return ReplySuccess
	case s.Closed != "" && strings.Contains(message, s.Closed):
		return ReplyClosed
	case s.Unclear != "" && strings.Contains(message, s.Unclear):
		return ReplyUnclear
	default:
		return ReplyStep
	}
}
