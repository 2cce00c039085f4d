// internal/roles/normalize.go
package roles

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Role identifiers are assumed canonical; human-entered region and circle
// names are not. Normalize maps both onto the same key space.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))

// Normalize canonicalizes a free-text organizational name: diacritics are
// decomposed and the combining marks dropped, the result is lower-cased and
// internal spaces are removed. Total over any input; letters that do not
// decompose (like the Polish stroke l) pass through unchanged.
func Normalize(s string) string {
	out, _, err := transform.String(stripMarks, s)
	if err != nil {
		out = s
	}
	return strings.ReplaceAll(strings.ToLower(out), " ", "")
}
