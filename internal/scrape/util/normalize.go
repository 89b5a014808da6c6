package util

import (
	"regexp"
	"strings"
)

var (
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	mdLinkRe = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// StripTags removes anything that looks like a tag, replacing it with repl.
func StripTags(s, repl string) string {
	return tagRe.ReplaceAllString(s, repl)
}

// ResolveMarkdownLinks turns [text](link) into text.
func ResolveMarkdownLinks(s string) string {
	return mdLinkRe.ReplaceAllString(s, "$1")
}

func StripBold(s string) string {
	return strings.ReplaceAll(s, "**", "")
}

// StripRunes drops every rune of glyphs from s.
func StripRunes(s, glyphs string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(glyphs, r) {
			return -1
		}
		return r
	}, s)
}

// ContainsFold reports whether needle occurs in s, ignoring case.
func ContainsFold(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}
