package elementtypes

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	iconPolicyOnce sync.Once
	iconPolicy     *bluemonday.Policy
)

// SanitizeIcon cleans an icon value. Icons are usually class names such as
// "icon-document color-blue" but inline SVG markup is accepted too.
func SanitizeIcon(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if !strings.HasPrefix(trimmed, "<") {
		return strings.Join(strings.FieldsFunc(trimmed, notClassRune), " ")
	}
	return strings.TrimSpace(iconSanitizer().Sanitize(trimmed))
}

func notClassRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '-' || r == '_':
		return false
	default:
		return true
	}
}

func iconSanitizer() *bluemonday.Policy {
	iconPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("svg", "g", "path", "circle", "rect", "line", "polyline", "polygon", "ellipse", "title", "use")

		policy.AllowAttrs(
			"xmlns", "viewBox", "width", "height", "fill", "stroke",
			"stroke-width", "aria-hidden", "focusable", "class",
		).OnElements("svg")
		policy.AllowAttrs("href", "xlink:href").OnElements("use")
		for _, el := range []string{"path", "circle", "rect", "line", "polyline", "polygon", "ellipse"} {
			policy.AllowAttrs(
				"d", "cx", "cy", "r", "x", "y", "x1", "y1", "x2", "y2",
				"points", "rx", "ry", "fill", "stroke", "stroke-width", "class",
			).OnElements(el)
		}

		iconPolicy = policy
	})
	return iconPolicy
}
