package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

func TestDecodeReplyPlainJSON(t *testing.T) {
	res := DecodeReply(`{"message": "請點擊右上角的設定按鈕"}`)
	assert.Equal(t, "請點擊右上角的設定按鈕", res.Message)
	assert.Nil(t, res.Bounds)
}

func TestDecodeReplyFenced(t *testing.T) {
	body := "```json\n{\"message\": \"請點擊聊天分頁\"}\n```"
	res := DecodeReply(body)
	assert.Equal(t, "請點擊聊天分頁", res.Message)
}

func TestDecodeReplyNestedOnce(t *testing.T) {
	res := DecodeReply(`{"message": "{\"message\": \"請往下捲動\"}"}`)
	assert.Equal(t, "請往下捲動", res.Message)
}

func TestDecodeReplyMalformedVerbatim(t *testing.T) {
	raw := "直接點擊畫面中間的按鈕就可以了"
	res := DecodeReply(raw)
	assert.Equal(t, raw, res.Message)
}

func TestDecodeReplyWithBounds(t *testing.T) {
	t.Run("separate field", func(t *testing.T) {
		res := DecodeReply(`{"message": "請點擊「設定」", "bounds": "@(40,120,200x64)"}`)
		require.NotNil(t, res.Bounds)
		assert.Equal(t, uitree.Rect{Left: 40, Top: 120, Width: 200, Height: 64}, *res.Bounds)
		assert.Equal(t, "請點擊「設定」", res.Message)
	})
	t.Run("nested field", func(t *testing.T) {
		res := DecodeReply(`{"message": "{\"message\": \"請點擊「設定」\", \"bounds\": \"@(8,16,32x64)\"}"}`)
		require.NotNil(t, res.Bounds)
		assert.Equal(t, uitree.Rect{Left: 8, Top: 16, Width: 32, Height: 64}, *res.Bounds)
		assert.Equal(t, "請點擊「設定」", res.Message)
	})
	t.Run("outer field wins over nested", func(t *testing.T) {
		res := DecodeReply(`{"message": "{\"message\": \"下一步\", \"bounds\": \"@(1,2,3x4)\"}", "bounds": "@(5,6,7x8)"}`)
		require.NotNil(t, res.Bounds)
		assert.Equal(t, 5, res.Bounds.Left)
	})
	t.Run("embedded in text", func(t *testing.T) {
		res := DecodeReply(`{"message": "請點擊「設定」 @(40,120,200x64)"}`)
		require.NotNil(t, res.Bounds)
		assert.Equal(t, uitree.Rect{Left: 40, Top: 120, Width: 200, Height: 64}, *res.Bounds)
	})
}

func TestDecodeReplyEmptyBody(t *testing.T) {
	res := DecodeReply("")
	assert.Equal(t, "", res.Message)
	assert.Nil(t, res.Bounds)
}

func TestParseBounds(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		r := ParseBounds(`• "設定"  [id=x]  <TextView>  @(10,20,30x40)`)
		require.NotNil(t, r)
		assert.Equal(t, uitree.Rect{Left: 10, Top: 20, Width: 30, Height: 40}, *r)
	})
	t.Run("absent", func(t *testing.T) {
		assert.Nil(t, ParseBounds("no marker here"))
	})
	t.Run("first of several", func(t *testing.T) {
		r := ParseBounds("@(1,2,3x4) @(5,6,7x8)")
		require.NotNil(t, r)
		assert.Equal(t, 1, r.Left)
	})
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", stripFences("plain"))
}
