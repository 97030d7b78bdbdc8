package detect

import (
	"strings"

	"github.com/v0xg/formfill/internal/page"
)

// Eligible reports whether an element may be filled. Hidden or
// non-interactive inputs are usually honeypots or tracking fields.
func Eligible(r page.Render) bool {
	if r.Width <= 0 || r.Height <= 0 {
		return false
	}
	if strings.EqualFold(r.Visibility, "hidden") {
		return false
	}
	if strings.EqualFold(r.Display, "none") {
		return false
	}
	return !r.Disabled && !r.ReadOnly
}
