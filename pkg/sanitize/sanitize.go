// Package sanitize strips lightweight Markdown decoration from model output
// so it reads cleanly in a plain text chat bubble.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

// ws matches Unicode whitespace, including the full-width space that is
// common in Japanese model output. RE2's \s alone is ASCII only.
const ws = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

var (
	headingRe   = regexp.MustCompile(`(?m)^` + ws + `{0,3}#{1,6}` + ws + `*`)
	boldRe      = regexp.MustCompile(`\*\*(.*?)\*\*`)
	bulletRe    = regexp.MustCompile(`(?m)^` + ws + `*-` + ws + `*`)
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
)

type step func(string) string

var pipeline = []step{
	trim,
	stripHeadings,
	unwrapBold,
	normalizeBullets,
	collapseBlankLines,
	normalizeSiteLabel,
}

// Clean applies the sanitizing pipeline to s until the output is stable, so
// Clean(Clean(s)) == Clean(s) holds for every input. A single pass is enough
// for ordinary text; a second one is needed only when unwrapping exposes a
// new marker, as in "**#** x".
//
// The loop terminates: every changing pass lowers the number of "：", or
// else the number of "-", or else the rune count.
func Clean(s string) string {
	for {
		next := apply(s)
		if next == s {
			return s
		}
		s = next
	}
}

func apply(s string) string {
	for _, fn := range pipeline {
		s = fn(s)
	}
	return s
}

func trim(s string) string {
	return strings.TrimFunc(s, isSpace)
}

func stripHeadings(s string) string {
	return headingRe.ReplaceAllString(s, "")
}

func unwrapBold(s string) string {
	return boldRe.ReplaceAllString(s, "${1}")
}

func normalizeBullets(s string) string {
	return bulletRe.ReplaceAllString(s, "・")
}

func collapseBlankLines(s string) string {
	return blankRunsRe.ReplaceAllString(s, "\n\n")
}

func normalizeSiteLabel(s string) string {
	return strings.ReplaceAll(s, "公式サイト：", "公式サイト: ")
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
