package query

import (
	"errors"
	"regexp"
	"strings"
)

// Extraction failures. Both mean the completion output was malformed,
// not that the question was hostile; callers recover via fallback.
var (
	// ErrNoQueryFound means the raw text contains no marker and no
	// query-start keyword.
	ErrNoQueryFound = errors.New("no query found in completion output")

	// ErrTooShort means the cleaned candidate is under the minimum
	// plausible length.
	ErrTooShort = errors.New("extracted query too short")
)

// minCandidateLen is the shortest cleaned candidate accepted.
const minCandidateLen = 15

// markerPattern locates explicit answer markers. Completions echo the
// prompt's trailing "SQL:" line, so the last occurrence is the answer.
var markerPattern = regexp.MustCompile(`(?i)(?:sql|query)\s*:`)

// startPattern locates query-start keywords when no marker is present.
// A bare "with" appears in trailing prose too, so only the CTE form
// counts as a start.
var startPattern = regexp.MustCompile(`(?i)\bselect\b|\bwith\s+[a-z_][a-z0-9_]*\s+as\s*\(`)

// fencePattern strips code-fence artifacts.
var fencePattern = regexp.MustCompile("(?i)```(?:sql)?")

var whitespacePattern = regexp.MustCompile(`\s+`)

// Extract pulls the candidate query out of raw completion text.
// Purely lexical: markers and keywords are located, wrapping artifacts
// stripped, whitespace collapsed. No grammar parsing.
//
// Branch order, first match wins: everything after the last explicit
// marker; else from the last query-start keyword (completions echo
// few-shot examples before the real answer, so the last one is taken);
// else ErrNoQueryFound.
func Extract(rawText string) (string, error) {
	var candidate string

	if locs := markerPattern.FindAllStringIndex(rawText, -1); len(locs) > 0 {
		candidate = rawText[locs[len(locs)-1][1]:]
	} else if locs := startPattern.FindAllStringIndex(rawText, -1); len(locs) > 0 {
		candidate = rawText[locs[len(locs)-1][0]:]
	} else {
		return "", ErrNoQueryFound
	}

	candidate = clean(candidate)
	if len(candidate) < minCandidateLen {
		return "", ErrTooShort
	}
	return candidate, nil
}

// clean applies the lexical post-processing shared by both branches:
// cut at the first terminator, strip fences and wrapping quotes,
// collapse whitespace, and guarantee a terminator.
func clean(candidate string) string {
	if idx := strings.Index(candidate, ";"); idx >= 0 {
		candidate = candidate[:idx+1]
	}
	candidate = fencePattern.ReplaceAllString(candidate, " ")
	candidate = whitespacePattern.ReplaceAllString(candidate, " ")
	candidate = strings.TrimSpace(candidate)
	candidate = stripWrappingQuotes(candidate)
	if candidate != "" && !strings.HasSuffix(candidate, ";") {
		candidate += ";"
	}
	return candidate
}

// stripWrappingQuotes removes quote characters wrapping the whole
// statement. Completions sometimes quote their answer; the closing
// quote may sit before or after the terminator, or be cut off with the
// trailing text entirely. A quote before the terminator is treated as
// the closing wrapper only when it cannot belong to a string literal
// (the quote char appears exactly twice).
func stripWrappingQuotes(candidate string) string {
	for len(candidate) > 0 {
		q := candidate[0]
		if q != '"' && q != '\'' && q != '`' {
			return candidate
		}
		switch {
		case len(candidate) > 1 && candidate[len(candidate)-1] == q:
			candidate = candidate[1 : len(candidate)-1]
		case strings.HasSuffix(candidate, string(q)+";") && strings.Count(candidate, string(q)) == 2:
			candidate = candidate[1:len(candidate)-2] + ";"
		default:
			candidate = candidate[1:]
		}
		candidate = strings.TrimSpace(candidate)
	}
	return candidate
}
