// Package filter narrows deep-scan results to the rows relevant to the
// classified sub-page. Each known page title carries a bilingual keyword
// table; unknown titles pass everything through unchanged.
package filter

import (
	"strings"

	"github.com/harry0816web/GrandmaHelper/internal/pageclass"
	"github.com/harry0816web/GrandmaHelper/internal/summary"
)

// Table maps a sub-page title to the keywords that keep a row. Matching is
// case-insensitive against the rendered line, so both the visible text and
// the view id participate.
type Table map[string][]string

// DefaultTable covers the settings sub-pages the assistant guides most
// often. Keywords mix zh-TW labels with the English id fragments the same
// rows carry.
func DefaultTable() Table {
	return Table{
		"聊天": {
			"聊天", "chat", "背景", "background", "字體", "font",
			"字型", "傳送", "send", "預覽", "preview", "設定",
			"setting", "description", "說明", "inlined_value",
		},
		"個人檔案": {
			"個人", "profile", "帳號", "account", "隱私", "privacy",
			"貼圖", "sticker", "字型", "font", "提醒", "reminder",
			"照片", "photo", "影片", "video", "聊天", "chat",
			"通話", "call", "相簿", "album", "設定", "setting",
			"title", "description",
		},
		"隱私": {
			"隱私", "privacy", "設定", "setting", "權限", "permission",
		},
		"一般": {
			"一般", "general", "設定", "setting", "基本", "basic",
		},
		"帳號": {
			"帳號", "account", "設定", "setting",
			"登入", "login", "登出", "logout",
		},
	}
}

type Filter struct {
	table Table
}

func New(table Table) *Filter {
	if table == nil {
		table = DefaultTable()
	}
	return &Filter{table: table}
}

// Apply keeps the elements whose rendered line contains any keyword for the
// classified page. Only Named classifications with a known title narrow the
// set; every other classification is a no-op returning items unchanged.
func (f *Filter) Apply(class pageclass.Classification, items []summary.Element) []summary.Element {
	if class.Kind != pageclass.Named {
		return items
	}
	keywords, ok := f.table[class.Title]
	if !ok {
		return items
	}
	out := make([]summary.Element, 0, len(items))
	for _, it := range items {
		line := strings.ToLower(it.Line())
		for _, kw := range keywords {
			if strings.Contains(line, strings.ToLower(kw)) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}
