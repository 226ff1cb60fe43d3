package formatter

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// Markup understood by the notification renderers. Keep these stable.
const (
	AddedOpen   = `<span class="diff-added">`
	RemovedOpen = `<span class="diff-removed">`
	SpanClose   = `</span>`
)

// Sentinels wrapped around edited runs while the diff is built. They are private use
// runes and are removed from the inputs first.
const (
	addMarker    = "\uE000"
	removeMarker = "\uE001"
)

var markerStripper = strings.NewReplacer(addMarker, "", removeMarker, "")

// markupEscaper keeps markup found in the values from being read as diff spans.
var markupEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeValue(s string) string {
	return markupEscaper.Replace(markerStripper.Replace(s))
}

// DiffText merges oldValue and newValue into one line. Words only in oldValue are
// wrapped in a diff-removed span, words only in newValue in a diff-added span. The
// characters &, < and > of both values are written as HTML entities.
//
//	DiffText("This is a test sentence", "This is a test line")
//	// This is a test <span class="diff-removed">sentence</span><span class="diff-added">line</span>
func DiffText(oldValue, newValue string) string {
	oldTokens := tokenize(escapeValue(oldValue))
	newTokens := tokenize(escapeValue(newValue))

	matcher := difflib.NewMatcherWithJunk(oldTokens, newTokens, false, nil)

	var b strings.Builder
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			b.WriteString(strings.Join(oldTokens[op.I1:op.I2], ""))
		case 'd':
			wrap(&b, removeMarker, oldTokens[op.I1:op.I2])
		case 'i':
			wrap(&b, addMarker, newTokens[op.J1:op.J2])
		case 'r':
			wrap(&b, removeMarker, oldTokens[op.I1:op.I2])
			wrap(&b, addMarker, newTokens[op.J1:op.J2])
		}
	}

	diff := b.String()
	diff = replaceMarkers(diff, addMarker, AddedOpen, SpanClose)
	diff = replaceMarkers(diff, removeMarker, RemovedOpen, SpanClose)
	return diff
}

func wrap(b *strings.Builder, marker string, tokens []string) {
	b.WriteString(marker)
	b.WriteString(strings.Join(tokens, ""))
	b.WriteString(marker)
}

// replaceMarkers turns every even occurrence of marker into openTag and every odd one
// into closeTag, counting left to right.
func replaceMarkers(diff, marker, openTag, closeTag string) string {
	var b strings.Builder
	index := 0
	for {
		pos := strings.Index(diff, marker)
		if pos < 0 {
			b.WriteString(diff)
			return b.String()
		}
		b.WriteString(diff[:pos])
		if index%2 == 0 {
			b.WriteString(openTag)
		} else {
			b.WriteString(closeTag)
		}
		diff = diff[pos+len(marker):]
		index++
	}
}

func isDelimiter(r rune) bool {
	return strings.ContainsRune(",.[](){}/\\*+-#", r)
}

// tokenize splits s into words, whitespace runs and single punctuation delimiters.
// Joining the tokens gives s back.
func tokenize(s string) []string {
	tokens := make([]string, 0)
	var current strings.Builder
	currentSpace := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !currentSpace {
				flush()
				currentSpace = true
			}
			current.WriteRune(r)
		case isDelimiter(r):
			flush()
			currentSpace = false
			tokens = append(tokens, string(r))
		default:
			if currentSpace {
				flush()
				currentSpace = false
			}
			current.WriteRune(r)
		}
	}
	flush()
	return tokens
}
