// Package format prepares user-facing text for the Telegram Markdown parse mode.
package format

import "regexp"

var mdRe = regexp.MustCompile("([_*`\\[])")

// Markdown escapes the characters that the legacy Markdown parse mode treats as entity markers.
func Markdown(text string) string {
	return mdRe.ReplaceAllString(text, `\$1`)
}
