// Package section infers section headings from plain text lines and
// carries the resulting context across chunks.
package section

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// DefaultMaxLines bounds how many leading non-blank lines Detect inspects.
const DefaultMaxLines = 4

// Heading is a matched heading line. Text keeps the stripped original
// line, Identifier the normalized enumeration marker (empty for bullets
// and bare uppercase headings), Title the whitespace-collapsed remainder
// and Path the hierarchy tokens derived from both.
type Heading struct {
	Text       string
	Identifier string
	Title      string
	Path       []string
}

type headingPattern struct {
	re *regexp.Regexp
	// titleOnly patterns capture the whole heading as title with no marker.
	titleOnly bool
	// dropIdentifier discards the captured marker, used for bullets.
	dropIdentifier bool
}

var headingPatterns = []headingPattern{
	{re: regexp.MustCompile(`^(\d+(?:\.\d+)*)(?:[.)-])?\s+(.+)`)},
	{re: regexp.MustCompile(`(?i)^([IVXLCDM]+)(?:[.)-])?\s+(.+)`)},
	{re: regexp.MustCompile(`^([A-Z])(?:[.)-])?\s+(.+)`)},
	{re: regexp.MustCompile(`^([a-z])(?:[.)-])?\s+(.+)`)},
	{re: regexp.MustCompile(`^([A-Z][A-Z\s]{3,})$`), titleOnly: true},
	{re: regexp.MustCompile(`^([-*•])\s+(.+)`), dropIdentifier: true},
}

var romanRe = regexp.MustCompile(`^(?i)[IVXLCDM]+$`)

// Detect scans the first DefaultMaxLines non-blank lines of text and
// returns the first heading match, or nil when none of them look like one.
func Detect(text string) *Heading {
	return DetectWithin(text, DefaultMaxLines)
}

// DetectWithin is Detect with an explicit line budget.
func DetectWithin(text string, maxLines int) *Heading {
	seen := 0
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if seen >= maxLines {
			break
		}
		if h := MatchLine(line); h != nil {
			return h
		}
		seen++
	}
	return nil
}

// MatchLine matches a single line against the known heading shapes:
// numeric ("2.1 Billing"), roman ("IV. Setup"), single letters
// ("A) Scope"), bare uppercase lines ("SECURITY OVERVIEW") and bullets.
func MatchLine(line string) *Heading {
	stripped := strings.TrimSpace(line)
	if stripped == "" {
		return nil
	}

	for _, p := range headingPatterns {
		m := p.re.FindStringSubmatch(stripped)
		if m == nil {
			continue
		}

		var identifier, title string
		if p.titleOnly {
			title = m[1]
		} else {
			identifier = m[1]
			title = m[2]
		}
		if p.dropIdentifier {
			identifier = ""
		}
		if title == "" {
			title = stripped
		}

		identifier = normalizeIdentifier(identifier)
		title = normalizeTitle(title)
		return &Heading{
			Text:       stripped,
			Identifier: identifier,
			Title:      title,
			Path:       derivePath(identifier, title),
		}
	}
	return nil
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

func normalizeIdentifier(identifier string) string {
	stripped := strings.TrimSpace(identifier)
	if stripped == "" {
		return ""
	}
	if runes := []rune(stripped); len(runes) == 1 && unicode.IsLetter(runes[0]) {
		return strings.ToUpper(stripped)
	}
	if romanRe.MatchString(stripped) {
		return strings.ToUpper(stripped)
	}
	return stripped
}

// derivePath turns "2.1" into ["2" "1"], letters and romans into their
// uppercase form, and appends the title as the final token unless the
// identifier already equals it.
func derivePath(identifier, title string) []string {
	cleaned := normalizeTitle(title)
	var tokens []string

	if identifier != "" {
		collapsed := strings.ReplaceAll(identifier, " ", "")
		switch {
		case isDottedNumber(collapsed):
			for _, part := range strings.Split(collapsed, ".") {
				if part != "" {
					tokens = append(tokens, part)
				}
			}
		case romanRe.MatchString(collapsed):
			tokens = append(tokens, strings.ToUpper(collapsed))
		case singleLetter(collapsed):
			tokens = append(tokens, strings.ToUpper(collapsed))
		default:
			tokens = append(tokens, collapsed)
		}
	}

	if cleaned != "" && !slices.Contains(tokens, cleaned) {
		tokens = append(tokens, cleaned)
	}
	if len(tokens) == 0 && cleaned != "" {
		return []string{cleaned}
	}
	return tokens
}

func isDottedNumber(s string) bool {
	digits := strings.ReplaceAll(s, ".", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func singleLetter(s string) bool {
	runes := []rune(s)
	return len(runes) == 1 && unicode.IsLetter(runes[0])
}
