// Package capture assembles the screen pipeline: pull a tree from the
// source, classify the page, summarize and filter it, and cache the latest
// result for whoever asks: the guidance session or the HTTP endpoint.
package capture

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harry0816web/GrandmaHelper/internal/assistant"
	"github.com/harry0816web/GrandmaHelper/internal/filter"
	"github.com/harry0816web/GrandmaHelper/internal/pageclass"
	"github.com/harry0816web/GrandmaHelper/internal/summary"
	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// placeholder is served before the first successful capture.
const placeholder = "Waiting for elements..."

// Config tunes the pipeline.
type Config struct {
	// TargetPackage gets the deep sectioned treatment; every other package
	// gets the generic flat summary.
	TargetPackage string
	// OwnPackage is skipped entirely so the assistant never reads its own
	// overlay back.
	OwnPackage string
	// MaxItems caps the generic summary. Zero means 100.
	MaxItems int
	// PollInterval and PollDeadline bound the retry loop around flaky
	// sources. Zero means 150ms / 2s.
	PollInterval time.Duration
	PollDeadline time.Duration
}

// Info is one finished capture, shaped for JSON transport.
type Info struct {
	SummaryText  string `json:"summaryText"`
	Package      string `json:"package"`
	PageType     string `json:"pageType"`
	ElementCount int    `json:"elementCount"`
	TimestampMs  int64  `json:"timestampMs"`
}

type Pipeline struct {
	src   uitree.Source
	sum   *summary.Summarizer
	class *pageclass.Classifier
	filt  *filter.Filter
	cfg   Config
	log   *zap.Logger

	mu   sync.RWMutex
	last *Info
}

func New(src uitree.Source, sum *summary.Summarizer, class *pageclass.Classifier, filt *filter.Filter, cfg Config, log *zap.Logger) *Pipeline {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 100
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 150 * time.Millisecond
	}
	if cfg.PollDeadline <= 0 {
		cfg.PollDeadline = 2 * time.Second
	}
	return &Pipeline{src: src, sum: sum, class: class, filt: filt, cfg: cfg, log: log}
}

// Latest returns the most recent capture, or a placeholder before any
// succeeded.
func (p *Pipeline) Latest() Info {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Info{SummaryText: placeholder, TimestampMs: time.Now().UnixMilli()}
	}
	return *p.last
}

// Refresh captures the current screen, retrying until the deadline. On
// timeout it falls back to the last good capture rather than failing a
// guidance round over a transient blank screen.
func (p *Pipeline) Refresh(ctx context.Context) (Info, error) {
	deadline := time.Now().Add(p.cfg.PollDeadline)
	var lastErr error

	for {
		snap, err := p.usableSnapshot(ctx)
		if err == nil {
			info := p.build(snap)
			p.mu.Lock()
			p.last = &info
			p.mu.Unlock()
			return info, nil
		}
		lastErr = err

		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return Info{}, ctx.Err()
		case <-time.After(p.cfg.PollInterval):
		}
	}

	p.mu.RLock()
	cached := p.last
	p.mu.RUnlock()
	if cached != nil {
		p.log.Warn("capture timed out, serving last good capture", zap.Error(lastErr))
		return *cached, nil
	}
	return Info{}, lastErr
}

// Capture implements the guidance session's provider contract.
func (p *Pipeline) Capture(ctx context.Context) (assistant.ScreenInfo, error) {
	info, err := p.Refresh(ctx)
	if err != nil {
		return assistant.ScreenInfo{}, err
	}
	return assistant.ScreenInfo{SummaryText: info.SummaryText, TimestampMs: info.TimestampMs}, nil
}

// usableSnapshot tries the active root first and falls back to scanning all
// windows when the active one is missing, nearly empty, or our own overlay.
func (p *Pipeline) usableSnapshot(ctx context.Context) (*uitree.Snapshot, error) {
	snap, err := p.src.ActiveRoot(ctx)
	if err == nil && p.usable(snap) {
		return snap, nil
	}
	if err != nil {
		p.log.Debug("active root unavailable", zap.Error(err))
	}

	wins, werr := p.src.Windows(ctx)
	if werr != nil {
		if err != nil {
			return nil, err
		}
		return nil, werr
	}

	var best *uitree.Snapshot
	for _, w := range wins {
		if !p.usable(w) {
			continue
		}
		if w.Package == p.cfg.TargetPackage {
			return w, nil
		}
		if best == nil || w.Len() > best.Len() {
			best = w
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, uitree.ErrNoWindow
}

// usable rejects empty trees and our own process.
func (p *Pipeline) usable(snap *uitree.Snapshot) bool {
	if snap == nil || snap.Len() <= 1 {
		return false
	}
	if p.cfg.OwnPackage != "" && snap.Package == p.cfg.OwnPackage {
		return false
	}
	return true
}

func (p *Pipeline) build(snap *uitree.Snapshot) Info {
	root := snap.Root()
	info := Info{
		Package:     snap.Package,
		TimestampMs: time.Now().UnixMilli(),
	}

	if p.cfg.TargetPackage != "" && snap.Package == p.cfg.TargetPackage {
		res := p.class.Classify(snap, root)
		items := p.sum.DeepSummarize(snap, res.ScanRoot, summary.DeepMaxDepth)
		items = p.filt.Apply(res.Class, items)
		pageType := p.class.DisplayPageType(snap, root, res.Class)

		info.PageType = pageType
		info.ElementCount = len(items)
		info.SummaryText = summary.Compose(items, summary.PageInfo{
			Title:       res.Class.Title,
			TypeLabel:   pageType,
			Description: pageDescription(pageType),
		})
		p.log.Debug("deep capture",
			zap.String("pageType", pageType),
			zap.Int("elements", len(items)))
		return info
	}

	rep := p.sum.Summarize(snap, root, p.cfg.MaxItems)
	info.PageType = "一般頁面"
	info.ElementCount = len(rep.Items)
	info.SummaryText = rep.String()
	p.log.Debug("generic capture",
		zap.String("package", snap.Package),
		zap.Int("elements", len(rep.Items)))
	return info
}

func pageDescription(pageType string) string {
	switch {
	case pageType == "聊天頁面":
		return "當前在聊天列表頁面，可以查看最近對話與未讀訊息\n主要元素：搜尋列、聊天清單、未讀徽章、分頁切換"
	case pageType == "主頁":
		return "當前在主頁，可由下方分頁切換聊天、貼圖小舖等功能"
	case pageType == "設定主頁":
		return "主要設定類別：個人檔案、聊天、貼圖、字型、隱私等"
	case strings.HasSuffix(pageType, "設定"):
		return "當前在「" + strings.TrimSuffix(pageType, "設定") + "」設定頁面，顯示該類別的可調整項目"
	default:
		return ""
	}
}
