package shared

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/width"
)

var scanCaser = cases.Upper(language.Und)

// NormalizeScan cleans a value read by a barcode scanner or typed on a
// handheld: full-width characters fold to ASCII, surrounding whitespace and
// control characters are dropped and letters are upper-cased.
func NormalizeScan(s string) string {
	s = width.Fold.String(s)
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return scanCaser.String(strings.TrimSpace(s))
}
