package typewriter

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize composes text to NFC, collapses every whitespace run to a single
// space and trims both ends. Erasure always operates on normalized text.
func Normalize(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}
