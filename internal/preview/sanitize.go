package preview

import (
	"regexp"
	"strings"
)

// OverrideMarker tags the injected stylesheet so callers can detect a
// sanitized document.
const OverrideMarker = "data-clonewatch-overrides"

// overrideCSS neutralizes author styles that would clip or pin content
// inside a constrained preview frame, and guarantees a scrollbar even for
// short pages by stretching the body past two viewport heights.
const overrideCSS = `
* {
  overflow: visible !important;
  height: auto !important;
  min-height: 0 !important;
  max-height: none !important;
  position: static !important;
}
html {
  overflow: auto !important;
  height: auto !important;
}
body {
  overflow: auto !important;
  height: auto !important;
  min-height: 200vh !important;
  padding-bottom: 120px !important;
}
[style*="position: fixed"],
[style*="position:fixed"] {
  position: relative !important;
}
`

// Tag locators tolerate arbitrary casing and attributes, so insertion works
// on markup a strict parser would reject.
var (
	reCloseHead = regexp.MustCompile(`(?i)</head\s*>`)
	reOpenHead  = regexp.MustCompile(`(?i)<head(\s[^>]*)?>`)
	reOpenBody  = regexp.MustCompile(`(?i)<body(\s[^>]*)?>`)
)

func styleBlock() string {
	return `<style ` + OverrideMarker + `="true">` + overrideCSS + `</style>`
}

// Sanitize returns a derived copy of doc that renders safely and scrollably
// in the local preview surface. The override stylesheet is spliced in at the
// first matching insertion point: before </head>, else after <head>, else
// before <body>, else the whole input is treated as body content and wrapped
// in a minimal document. Never fails; any input yields a well-formed page.
//
// The input is returned untouched in spirit as well as letter: export paths
// must keep using the original string, never the value returned here.
//
// An already-sanitized document is returned as-is, so re-rendering a stored
// result never stacks override blocks.
func Sanitize(doc string) string {
	if IsSanitized(doc) {
		return doc
	}

	block := styleBlock()

	if loc := reCloseHead.FindStringIndex(doc); loc != nil {
		return doc[:loc[0]] + block + doc[loc[0]:]
	}
	if loc := reOpenHead.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + block + doc[loc[1]:]
	}
	if loc := reOpenBody.FindStringIndex(doc); loc != nil {
		return doc[:loc[0]] + block + doc[loc[0]:]
	}

	return `<!DOCTYPE html><html><head><meta charset="utf-8">` + block +
		`</head><body style="overflow: auto; height: auto;">` + doc + `</body></html>`
}

// IsSanitized reports whether doc already carries the override stylesheet.
func IsSanitized(doc string) bool {
	return strings.Contains(doc, OverrideMarker)
}
