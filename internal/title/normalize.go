package title

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// dashQualifierPattern matches a trailing dash qualifier such as
	// "Film — Restoration". The dash must have whitespace on both sides so
	// hyphenated titles like "Spider-Man" are left alone.
	dashQualifierPattern = regexp.MustCompile(`\s+[-–—]\s+\S.*$`)

	// trailingYearPattern matches "(2024)" or a range like "(2016-23)" at the
	// end of a title.
	trailingYearPattern = regexp.MustCompile(`\s*\(\d{4}(?:-\d{2,4})?\)\s*$`)

	// bracketTagPattern matches square-bracket format tags anywhere in the
	// title: [35mm], [Q&A], [4K].
	bracketTagPattern = regexp.MustCompile(`\s*\[[^\]]+\]\s*`)

	// trailingParenPattern captures a final parenthetical so digitless notes
	// like "(Subtitled)" can be dropped while "(1996)" survives for the year
	// passes.
	trailingParenPattern = regexp.MustCompile(`\s*\(([^)]*)\)\s*$`)

	embeddedYearPattern = regexp.MustCompile(`\((\d{4})\)`)

	strictTrailingYearPattern = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)

	whitespaceRunPattern = regexp.MustCompile(`\s+`)
)

// seriesPrefixes lists event-series and screening-type labels cinemas prepend
// to titles, stripped when followed by a colon. The set is hand-maintained;
// add new series names here as cinemas invent them.
var seriesPrefixes = []string{
	"Preview",
	"Sneak Preview",
	"Advanced Screening",
	"Special Screening",
	"Member Screening",
	"Q&A",
	"Intro",
	"NT Live",
	"ROH",
	"Film Club",
	"Dochouse",
	"Doc House",
	"Shorts",
	"Shorts Club",
	"Documentary",
	"Relaxed",
	"Relaxed Screening",
	"Dementia Friendly",
	"Silver Screen",
	"Parent & Baby",
	"Baby Cinema",
	"Autism Friendly",
}

var seriesPrefixPattern = compileSeriesPrefixPattern()

func compileSeriesPrefixPattern() *regexp.Regexp {
	quoted := make([]string, 0, len(seriesPrefixes))
	for _, prefix := range seriesPrefixes {
		quoted = append(quoted, regexp.QuoteMeta(prefix))
	}
	return regexp.MustCompile(`(?i)^(?:` + strings.Join(quoted, "|") + `):\s+`)
}

// Normalize reduces a raw scraped title to its canonical comparison form.
// The same function runs on both the write path (resolution) and the read
// path (matching), so identical raw titles always normalize identically.
// Empty or whitespace-only input returns an empty string.
func Normalize(raw string) string {
	t := strings.TrimSpace(raw)

	// Dash qualifiers go first so "Film (1929) — Restoration" becomes
	// "Film (1929)" and the year pass can then strip the year.
	t = dashQualifierPattern.ReplaceAllString(t, "")

	t = trailingYearPattern.ReplaceAllString(t, "")

	t = bracketTagPattern.ReplaceAllString(t, " ")

	// Trailing parenthetical notes with no digit are presentation-only
	// ("(Subtitled)", "(Director's Cut)"). A parenthetical containing a digit
	// is kept; it is either a mid-title year or part of the title proper.
	if m := trailingParenPattern.FindStringSubmatch(t); m != nil && !strings.ContainsAny(m[1], "0123456789") {
		t = t[:len(t)-len(m[0])]
	}

	for {
		stripped := seriesPrefixPattern.ReplaceAllString(t, "")
		if stripped == t {
			break
		}
		t = stripped
	}

	t = whitespaceRunPattern.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// doubleBillPattern recognizes "<Title A> (YYYY) and <Title B>". The year must
// immediately precede the conjunction; plain titles containing "and" (for
// example "Crime and Punishment") never split.
var doubleBillPattern = regexp.MustCompile(`(?i)^(.+\(\d{4}\))\s+and\s+(.+)$`)

// SplitDoubleBill splits a double-bill event title into its constituent
// normalized titles. Anything that does not match the double-bill pattern
// comes back as a single-element slice holding the normalized whole title.
func SplitDoubleBill(raw string) []string {
	if m := doubleBillPattern.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		first := Normalize(strings.TrimSpace(m[1]))
		second := Normalize(strings.TrimSpace(m[2]))
		if len(first) >= 2 && len(second) >= 2 {
			return []string{first, second}
		}
	}
	return []string{Normalize(raw)}
}

// EmbeddedYear returns the first "(YYYY)" year found anywhere in the title.
// Normalization strips trailing years, but mid-title years survive it.
func EmbeddedYear(s string) (int, bool) {
	m := embeddedYearPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// StripTrailingYear removes a trailing "(YYYY)" from a title for display.
func StripTrailingYear(s string) string {
	return strings.TrimSpace(strictTrailingYearPattern.ReplaceAllString(s, ""))
}

var (
	slugSeparatorPattern = regexp.MustCompile(`[\s_]+`)
	slugInvalidPattern   = regexp.MustCompile(`[^a-z0-9-]`)
	slugHyphenRunPattern = regexp.MustCompile(`-+`)

	// slugFolder decomposes accented characters and drops the combining
	// marks so "Amélie" slugs to "amelie".
	slugFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify converts text to a lowercase URL-safe slug. Diacritics fold to
// their base letters; everything outside [a-z0-9-] is dropped.
func Slugify(s string) string {
	if folded, _, err := transform.String(slugFolder, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	s = slugSeparatorPattern.ReplaceAllString(s, "-")
	s = slugInvalidPattern.ReplaceAllString(s, "")
	s = slugHyphenRunPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
