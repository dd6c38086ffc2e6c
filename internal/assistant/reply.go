package assistant

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/harry0816web/GrandmaHelper/internal/uitree"
)

// boundsRe matches the location marker embedded in guidance text, in the
// same format the summary lines use: @(left,top,widthxheight).
var boundsRe = regexp.MustCompile(`@\((\d+),(\d+),(\d+)x(\d+)\)`)

// ParseBounds extracts the first embedded location marker, if any.
func ParseBounds(text string) *uitree.Rect {
	m := boundsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	l, _ := strconv.Atoi(m[1])
	t, _ := strconv.Atoi(m[2])
	w, _ := strconv.Atoi(m[3])
	h, _ := strconv.Atoi(m[4])
	return &uitree.Rect{Left: l, Top: t, Width: w, Height: h}
}

// stripFences removes a markdown code fence wrapper, with or without a
// language tag, leaving anything else untouched.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.ContainsAny(s[:i], "{}") {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeReply turns a raw backend body into a displayable step. Backends are
// inconsistent: some return {"message": "..."}, some double-encode and put a
// JSON object inside the message string, some fence the JSON in markdown,
// and some return plain prose. Anything that does not decode is shown to the
// user verbatim rather than dropped, so this never returns an error.
func DecodeReply(body string) *Result {
	text := stripFences(body)

	var bounds *uitree.Rect
	if b := gjson.Get(text, "bounds"); b.Exists() {
		bounds = ParseBounds(b.String())
	}

	if msg := gjson.Get(text, "message"); msg.Exists() {
		inner := stripFences(msg.String())
		// One level of nesting only: a message that is itself a JSON
		// object with a message field, and possibly its own bounds.
		if nested := gjson.Get(inner, "message"); nested.Exists() {
			if bounds == nil {
				if b := gjson.Get(inner, "bounds"); b.Exists() {
					bounds = ParseBounds(b.String())
				}
			}
			inner = nested.String()
		}
		text = inner
	}

	text = strings.TrimSpace(text)
	if bounds == nil {
		bounds = ParseBounds(text)
	}
	return &Result{Message: text, Bounds: bounds}
}
