// Package htmltext turns CMS-rendered HTML fragments into display text.
//
// WordPress returns titles and excerpts as rendered HTML: entities are
// encoded (&#8217;, &amp;, ...) and excerpts are wrapped in <p> tags. The
// helpers here decode entities and strip markup so the values can be shown
// as plain text, while full post bodies keep their markup.
//
// Two entity decoders are provided. DecodeEntities walks the input with an
// explicit character table and has no dependency on an HTML parser.
// DecodeEntitiesParser delegates to the golang.org/x/net/html decoder. Both
// produce identical output for the named entities listed in namedEntities and
// for every numeric (&#NNN;) and hex (&#xHHH;) reference.
package htmltext

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// namedEntities is the set of named references the table decoder understands.
var namedEntities = map[string]rune{
	"amp":    '&',
	"lt":     '<',
	"gt":     '>',
	"quot":   '"',
	"apos":   '\'',
	"nbsp":   '\u00a0',
	"ndash":  '–',
	"mdash":  '—',
	"lsquo":  '‘',
	"rsquo":  '’',
	"ldquo":  '“',
	"rdquo":  '”',
	"hellip": '…',
}

// c1Replacements maps numeric references in 0x80–0x9F to the characters a
// browser shows for them (the windows-1252 interpretation).
var c1Replacements = [32]rune{
	'€', '\u0081', '‚', 'ƒ', '„', '…', '†', '‡',
	'ˆ', '‰', 'Š', '‹', 'Œ', '\u008D', 'Ž', '\u008F',
	'\u0090', '‘', '’', '“', '”', '•', '–', '—',
	'˜', '™', 'š', '›', 'œ', '\u009D', 'ž', 'Ÿ',
}

// maxEntityLen bounds the lookahead for a terminating ';'.
const maxEntityLen = 32

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// DecodeEntities decodes HTML character references using an explicit table.
// Unknown or unterminated references are left untouched.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i+1:min(len(s), i+1+maxEntityLen)], ';')
		if end <= 0 {
			b.WriteByte('&')
			i++
			continue
		}
		ref := s[i+1 : i+1+end]

		r, ok := decodeRef(ref)
		if !ok {
			b.WriteByte('&')
			i++
			continue
		}
		b.WriteRune(r)
		i += end + 2
	}
	return b.String()
}

// DecodeEntitiesParser decodes HTML character references with the
// x/net/html decoder. It accepts the full HTML5 entity set.
func DecodeEntitiesParser(s string) string {
	return html.UnescapeString(s)
}

func decodeRef(ref string) (rune, bool) {
	if ref[0] != '#' {
		r, ok := namedEntities[ref]
		return r, ok
	}

	digits, base := ref[1:], 10
	if len(digits) > 0 && (digits[0] == 'x' || digits[0] == 'X') {
		digits, base = digits[1:], 16
	}
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		// Out-of-range numbers still decode, to the replacement character.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return utf8.RuneError, true
		}
		return 0, false
	}
	return numericRune(n), true
}

func numericRune(n uint64) rune {
	switch {
	case n >= 0x80 && n <= 0x9F:
		return c1Replacements[n-0x80]
	case n == 0, n > utf8.MaxRune, n >= 0xD800 && n <= 0xDFFF:
		return utf8.RuneError
	}
	return rune(n)
}

// StripTags removes anything that looks like a tag. It is a single regular
// expression pass, not an HTML parser.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// PlainText strips tags, decodes entities, and trims surrounding whitespace.
// It is what excerpt-like fields go through before display.
func PlainText(s string) string {
	return strings.TrimSpace(DecodeEntities(StripTags(s)))
}

// Title decodes entities in a rendered title and trims it.
func Title(s string) string {
	return strings.TrimSpace(DecodeEntities(s))
}
