package parser

import (
	"strings"

	"github.com/araddon/dateparse"
)

// DateLayout is how publication dates are shown to the presentation layer.
const DateLayout = "January 2, 2006"

// FormatDate normalises a publication date. Strings that cannot be parsed
// are returned unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}
