package hlist

import (
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const softHyphen = '\u00ad'

// FromText converts a string into Char and Space items in the given font.
// The text is NFC normalized first so that combining sequences map to the
// precomposed glyphs fonts usually carry. A soft hyphen becomes a
// discretionary with a hyphen before the break.
func FromText(s, font string) []Item {
	s = norm.NFC.String(s)
	items := make([]Item, 0, len(s))
	for _, r := range s {
		switch {
		case r == softHyphen:
			items = append(items, Disc{Pre: []Item{Char{Rune: '-', Font: font}}})
		case unicode.IsSpace(r):
			items = append(items, Space{Font: font})
		case unicode.IsControl(r):
		default:
			items = append(items, Char{Rune: r, Font: font})
		}
	}
	return items
}
