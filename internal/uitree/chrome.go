package uitree

import (
	"context"
	"fmt"
	"net/url"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// treeScript flattens the visible DOM into an arena-shaped array. Each entry
// carries its parent index so the Go side can rebuild the tree without a
// second pass. Roles are mapped onto Android-like class names so the rest of
// the pipeline sees the same vocabulary a device capture would produce.
const treeScript = `(() => {
	const out = [];

	function cleanText(t) {
		if (!t) return '';
		let s = t.replace(/\s+/g, ' ').trim();
		if (s.length > 100) s = s.slice(0, 100) + '...';
		return s;
	}

	function roleOf(el) {
		const tag = el.tagName.toLowerCase();
		const role = (el.getAttribute('role') || '').toLowerCase();
		if (tag === 'button' || role === 'button') return 'android.widget.Button';
		if (tag === 'input' || tag === 'textarea' || role === 'textbox') return 'android.widget.EditText';
		if (tag === 'img' || role === 'img') return 'android.widget.ImageView';
		if (tag === 'ul' || tag === 'ol' || role === 'list') return 'androidx.recyclerview.widget.RecyclerView';
		if (/^h[1-6]$/.test(tag)) return 'android.widget.TextView';
		if (tag === 'a' || role === 'link') return 'android.widget.Button';
		if (tag === 'p' || tag === 'span' || tag === 'label') return 'android.widget.TextView';
		if (tag === 'main' || tag === 'section' || tag === 'div' || tag === 'form') return 'android.widget.FrameLayout';
		if (tag === 'nav' || tag === 'header' || tag === 'footer') return 'android.view.ViewGroup';
		return 'android.view.View';
	}

	function interactive(el) {
		const tag = el.tagName.toLowerCase();
		const role = (el.getAttribute('role') || '').toLowerCase();
		return ['a','button','input','textarea','select','details','summary'].includes(tag) ||
			['button','link','checkbox','menuitem','tab','textbox','combobox','option'].includes(role) ||
			el.onclick != null;
	}

	function walk(el, parent) {
		if (!el || !el.getBoundingClientRect) return;
		const tag = el.tagName ? el.tagName.toLowerCase() : '';
		if (['script','style','svg','path','noscript'].includes(tag)) return;

		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (style.visibility === 'hidden' || style.display === 'none') return;

		let label = cleanText(el.getAttribute && (el.getAttribute('aria-label') || ''));
		if (!label) {
			for (const child of el.childNodes) {
				if (child.nodeType === Node.TEXT_NODE) {
					label = cleanText(child.textContent);
					if (label) break;
				}
			}
		}
		if (!label && (tag === 'input' || tag === 'textarea')) {
			label = cleanText(el.getAttribute('placeholder') || '');
		}

		const tagSel = el.tagName ? el.tagName.toLowerCase() : '';
		const id = el.id ? (tagSel + '#' + el.id) : '';
		const scrollable = el.scrollHeight > el.clientHeight + 4 && /(auto|scroll)/.test(style.overflowY);

		const idx = out.length;
		out.push({
			parent: parent,
			viewId: id,
			text: label,
			role: roleOf(el),
			left: Math.round(rect.left),
			top: Math.round(rect.top),
			width: Math.round(rect.width),
			height: Math.round(rect.height),
			clickable: interactive(el),
			editable: tag === 'input' || tag === 'textarea',
			checkable: tag === 'input' && ['checkbox','radio'].includes((el.type || '').toLowerCase()),
			scrollable: scrollable,
			selected: el === document.activeElement,
			focused: el === document.activeElement,
		});

		for (const child of el.children) {
			walk(child, idx);
		}
	}

	walk(document.body, -1);
	return out;
})()`

type domEntry struct {
	Parent     int    `json:"parent"`
	ViewID     string `json:"viewId"`
	Text       string `json:"text"`
	Role       string `json:"role"`
	Left       int    `json:"left"`
	Top        int    `json:"top"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Clickable  bool   `json:"clickable"`
	Editable   bool   `json:"editable"`
	Checkable  bool   `json:"checkable"`
	Scrollable bool   `json:"scrollable"`
	Selected   bool   `json:"selected"`
	Focused    bool   `json:"focused"`
}

// ChromeSource snapshots a live Chrome page through the DevTools protocol.
// It is the development stand-in for the on-device accessibility bridge: the
// page's host name plays the part of the foreign application's package name.
type ChromeSource struct {
	ctx    context.Context
	cancel context.CancelFunc
	alloc  context.CancelFunc
	log    *zap.Logger
}

// NewChromeSource launches a headless browser and navigates to startURL.
func NewChromeSource(parent context.Context, startURL string, log *zap.Logger) (*ChromeSource, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, chromedp.DefaultExecAllocatorOptions[:]...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	if err := chromedp.Run(ctx, chromedp.Navigate(startURL)); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("navigate to %s: %w", startURL, err)
	}

	return &ChromeSource{ctx: ctx, cancel: cancel, alloc: allocCancel, log: log}, nil
}

func (c *ChromeSource) Close() {
	c.cancel()
	c.alloc()
}

func (c *ChromeSource) ActiveRoot(ctx context.Context) (*Snapshot, error) {
	var entries []domEntry
	var loc string
	var viewport Rect

	err := chromedp.Run(c.ctx,
		chromedp.Location(&loc),
		chromedp.Evaluate(treeScript, &entries),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, visual, _, _, _, _, err := page.GetLayoutMetrics().Do(ctx)
			if err != nil {
				return err
			}
			if visual != nil {
				viewport = Rect{
					Left:   int(visual.PageX),
					Top:    int(visual.PageY),
					Width:  int(visual.ClientWidth),
					Height: int(visual.ClientHeight),
				}
			}
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dom snapshot failed: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNoWindow
	}

	pkg := "unknown"
	if u, perr := url.Parse(loc); perr == nil && u.Host != "" {
		pkg = u.Host
	}

	b := NewBuilder(pkg)
	b.SetViewport(viewport)
	for _, e := range entries {
		b.Add(e.Parent, Node{
			ViewID: e.ViewID,
			Text:   e.Text,
			Role:   e.Role,
			Bounds: Rect{Left: e.Left, Top: e.Top, Width: e.Width, Height: e.Height},
			Flags: Flags{
				Clickable:  e.Clickable,
				Editable:   e.Editable,
				Checkable:  e.Checkable,
				Scrollable: e.Scrollable,
				Selected:   e.Selected,
				Focused:    e.Focused,
			},
		})
	}
	snap := b.Build()

	c.log.Debug("dom snapshot captured",
		zap.String("package", snap.Package),
		zap.Int("nodes", snap.Len()))
	return snap, nil
}

// Windows returns the single browser page; a browser source has no
// secondary windows to fall back to.
func (c *ChromeSource) Windows(ctx context.Context) ([]*Snapshot, error) {
	snap, err := c.ActiveRoot(ctx)
	if err != nil {
		return nil, err
	}
	return []*Snapshot{snap}, nil
}
