package model

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/k4r01q/rung/internal/id"
)

// slugLimit is the maximum byte length of a generated branch name (spec
// §4.4: "truncated to 64 bytes").
const slugLimit = 64

// ErrEmptySlug indicates a commit message produced no usable branch name
// (spec §7: EmptySlug).
var ErrEmptySlug = &id.InvalidBranchNameError{Reason: "message contains no alphanumeric characters"}

// Slugify derives a branch name from a commit message: lowercase,
// non-alphanumerics collapsed to '-', trimmed of leading/trailing '-',
// truncated to slugLimit bytes. Idempotent: Slugify(Slugify(x)) ==
// Slugify(x) for any non-empty result.
func Slugify(message string) (string, error) {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return "", ErrEmptySlug
	}

	var name strings.Builder
	for _, w := range words {
		needHyphen := name.Len() > 0
		newLen := name.Len() + len(w)
		if needHyphen {
			newLen++
		}
		if newLen > slugLimit {
			if name.Len() == 0 {
				for len(w) > slugLimit {
					_, size := utf8.DecodeLastRuneInString(w)
					w = w[:len(w)-size]
				}
				name.WriteString(w)
			}
			break
		}
		if needHyphen {
			name.WriteByte('-')
		}
		name.WriteString(w)
	}

	if name.Len() == 0 {
		return "", ErrEmptySlug
	}
	return name.String(), nil
}
