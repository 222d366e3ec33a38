package model

import (
	"strings"
	"unicode/utf8"
)

// IsStorableText reports whether s can be stored in a Postgres text column:
// valid UTF-8 without NUL bytes.
func IsStorableText(s string) bool {
	return utf8.ValidString(s) && !strings.ContainsRune(s, 0)
}
