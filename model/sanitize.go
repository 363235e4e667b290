package model

import (
	"regexp"
	"strings"
)

const thinkOpen = "<think>"

var (
	thinkBlockRegex  = regexp.MustCompile(`(?s)<think>.*?</think>\s*`)
	thinkMarkerRegex = regexp.MustCompile(`</?think>`)
)

// StripThinking removes model reasoning from a finished response: complete
// <think>...</think> blocks with the whitespace after them, then any stray
// marker. Text outside complete blocks is kept. Markers are removed until
// none remain, so no <think> or </think> survives.
func StripThinking(text string) string {
	text = thinkBlockRegex.ReplaceAllString(text, "")
	for thinkMarkerRegex.MatchString(text) {
		text = thinkMarkerRegex.ReplaceAllString(text, "")
	}
	return text
}

// HideThinking is StripThinking for text that is still streaming: a trailing
// block that has not been closed yet is hidden as well.
func HideThinking(text string) string {
	text = thinkBlockRegex.ReplaceAllString(text, "")
	if i := strings.Index(text, thinkOpen); i >= 0 {
		text = text[:i]
	}
	return StripThinking(text)
}
