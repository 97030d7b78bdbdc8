package detect

import (
	"strings"

	"github.com/v0xg/formfill/internal/page"
)

// ResolveLabel returns the caption for an element, trying each markup
// pattern in turn: a formally associated label, a label inside the parent
// container, then a preceding sibling label. The first non-empty text wins.
func ResolveLabel(src page.LabelSources) string {
	for _, text := range src.Associated {
		if t := strings.TrimSpace(text); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(src.Parent); t != "" {
		return t
	}
	if src.PrevSiblingIsLabel {
		return strings.TrimSpace(src.PrevSibling)
	}
	return ""
}
