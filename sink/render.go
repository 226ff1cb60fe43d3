package sink

import (
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/strahe/catalog-sentinel/formatter"
)

var (
	addedSpan   = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(formatter.AddedOpen) + `(.*?)` + regexp.QuoteMeta(formatter.SpanClose))
	removedSpan = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(formatter.RemovedOpen) + `(.*?)` + regexp.QuoteMeta(formatter.SpanClose))
	lineBreak   = regexp.MustCompile(`\s*<br/>\s*`)

	entityUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// RenderMessage turns message markup into terminal text: line breaks become newlines
// and diff spans become colored text. Without color, additions are written as [+text]
// and removals as [-text]. Characters escaped inside diffs are written back as they are.
func RenderMessage(message string, colorEnabled bool) string {
	added := func(s string) string { return "[+" + s + "]" }
	removed := func(s string) string { return "[-" + s + "]" }
	if colorEnabled {
		addedColor := color.New(color.FgGreen, color.Bold)
		removedColor := color.New(color.FgRed, color.CrossedOut)
		added = func(s string) string { return addedColor.Sprint(s) }
		removed = func(s string) string { return removedColor.Sprint(s) }
	}

	out := addedSpan.ReplaceAllStringFunc(message, func(m string) string {
		return added(addedSpan.FindStringSubmatch(m)[1])
	})
	out = removedSpan.ReplaceAllStringFunc(out, func(m string) string {
		return removed(removedSpan.FindStringSubmatch(m)[1])
	})
	out = lineBreak.ReplaceAllString(out, "\n")
	return strings.TrimSpace(entityUnescaper.Replace(out))
}
