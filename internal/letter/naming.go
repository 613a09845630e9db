package letter

import (
	"fmt"
	"strings"
)

// Title is the name given to the copied document.
func Title(company, role string) string {
	return fmt.Sprintf("%s - %s - Cover Letter", company, role)
}

// Filename is the name of the exported PDF.
func Filename(company string) string {
	return company + "_Cover_Letter.pdf"
}

// unsafeChars cannot appear in a file name on at least one common platform.
const unsafeChars = `/\:*?"<>|`

// Sanitize replaces characters that are unsafe in a file name with '_'.
// A leading dot is replaced too, so the result is never "." or "..".
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteRune('_')
		case strings.ContainsRune(unsafeChars, r):
			b.WriteRune('_')
		case r == '.' && i == 0:
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
