// Package fingerprint derives semi-stable identity keys for UI elements
// so the "same" element can be recognized across two temporally-close
// captures of one scrollable surface.
//
// A resource id wins over text; text keys are truncated and qualified by
// widget class. The scheme is deliberately approximate: repeated list rows
// can share a key, which downstream consumers tolerate through band
// exclusions and median offsets.
package fingerprint

import (
	"github.com/botts7/visual-mapper-sub000/pkg/core"
)

// maxTextLen bounds text-based keys and tolerates trailing truncation
// differences between dumps.
const maxTextLen = 50

// Key derives the identity key for an element. The second return value is
// false when the element has no resource id and no text and therefore
// cannot be re-identified.
func Key(e core.Element) (string, bool) {
	if e.ResourceID != "" && e.ResourceID != "null" {
		return "id:" + e.ResourceID, true
	}
	if e.Text != "" {
		text := e.Text
		// Truncation counts runes, not bytes, so multi-byte text is never
		// split mid-character.
		if runes := []rune(text); len(runes) > maxTextLen {
			text = string(runes[:maxTextLen])
		}
		return "text:" + text + "|" + e.ClassName, true
	}
	return "", false
}

// Keys returns the set of identity keys present in the element list.
func Keys(elements []core.Element) map[string]struct{} {
	set := make(map[string]struct{}, len(elements))
	for _, e := range elements {
		if k, ok := Key(e); ok {
			set[k] = struct{}{}
		}
	}
	return set
}

// ElementMap maps each key to the first element that produced it.
func ElementMap(elements []core.Element) map[string]core.Element {
	m := make(map[string]core.Element, len(elements))
	for _, e := range elements {
		k, ok := Key(e)
		if !ok {
			continue
		}
		if _, seen := m[k]; !seen {
			m[k] = e
		}
	}
	return m
}

// CenterMap maps each key to the vertical center of the first element that
// produced it, restricted to elements whose center lies in [minY, maxY).
// The band restriction excludes fixed chrome from offset computation.
func CenterMap(elements []core.Element, minY, maxY int) map[string]int {
	m := make(map[string]int, len(elements))
	for _, e := range elements {
		k, ok := Key(e)
		if !ok {
			continue
		}
		cy := e.Bounds.CenterY()
		if cy < minY || cy >= maxY {
			continue
		}
		if _, seen := m[k]; !seen {
			m[k] = cy
		}
	}
	return m
}

// Common returns the keys present in both sets.
func Common(a map[string]struct{}, b map[string]struct{}) []string {
	var keys []string
	for k := range a {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}
