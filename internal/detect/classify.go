// Package detect classifies form inputs into semantic field categories and
// builds the per-scan field index.
package detect

import (
	"strings"

	"github.com/v0xg/formfill/internal/page"
)

// Category is a semantic field class.
type Category string

const (
	Name    Category = "name"
	Email   Category = "email"
	Phone   Category = "phone"
	Address Category = "address"
)

// Categories lists every category in fill order.
var Categories = []Category{Name, Email, Phone, Address}

// Signals is the text evidence for one element.
type Signals struct {
	ID          string
	Name        string
	Placeholder string
	Label       string
	Type        string
}

// SignalsOf builds the signal bundle for a candidate, resolving its label.
func SignalsOf(c page.Candidate) Signals {
	return Signals{
		ID:          c.ID,
		Name:        c.Name,
		Placeholder: c.Placeholder,
		Label:       ResolveLabel(c.Labels),
		Type:        c.Type,
	}
}

// Text returns the lower-cased concatenation used for substring matching.
func (s Signals) Text() string {
	return strings.ToLower(s.ID + " " + s.Name + " " + s.Placeholder + " " + s.Label)
}

type rule struct {
	category Category
	kind     string
	any      []string
	none     []string
}

// rules are evaluated in order and the first match wins. Categories share
// vocabulary, so the order is part of the behaviour: email, phone, address,
// then name.
var rules = []rule{
	{category: Email, kind: "email", any: []string{"email", "e-mail"}},
	{category: Phone, kind: "tel", any: []string{"phone", "mobile", "telephone", "cel"}},
	{category: Address, any: []string{"address", "street", "city", "zip", "postal"}},
	// username and login fields are account identifiers, not a display name.
	{category: Name, any: []string{"name"}, none: []string{"user", "login"}},
}

// Classify maps a signal bundle to a category. ok is false when no rule
// matches.
func Classify(s Signals) (cat Category, ok bool) {
	kind := strings.ToLower(strings.TrimSpace(s.Type))
	text := s.Text()

	for _, r := range rules {
		if r.matches(kind, text) {
			return r.category, true
		}
	}
	return "", false
}

func (r rule) matches(kind, text string) bool {
	if r.kind != "" && kind == r.kind {
		return true
	}
	if !containsAny(text, r.any) {
		return false
	}
	return !containsAny(text, r.none)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
