// Package factor extracts the numeric scale factor implied by free-text
// metadata, e.g. "per 1000 live births" or "Coverage (percent)".
//
// The heuristics are best-effort and cover English plus the French
// "pour"/"par" prepositions seen in bilingual registries.
package factor

import (
	"regexp"
	"strconv"
	"strings"
)

// Spelled-out magnitude words and their values. "percent" counts as a
// factor of 100 because percentage indicators scale by 100.
var magnitudes = map[string]int64{
	"ten":      10,
	"hundred":  100,
	"thousand": 1000,
	"million":  1000000,
	"billion":  1000000000,
	"percent":  100,
}

var (
	// A number preceded by per/pour/par or an operator, or followed by *.
	multiplicativeRe = regexp.MustCompile(`(?:pour|per|par|[*/])(\d+)|(\d+)\*`)
	plainNumberRe    = regexp.MustCompile(`\d+`)
	stripRe          = regexp.MustCompile(`[\s,]`)
	// Each magnitude word must be bounded by whitespace or a string edge.
	magnitudeRe = regexp.MustCompile(
		`(?i)(?:^|\s)(ten|hundred|thousand|million|billion|percent)(?:\s|$)`)
	spreadRe = regexp.MustCompile(`[\s\-]`)
)

// Extract scans text for a numeric scale factor. When multiplicative is
// true it first looks for an explicit multiplicative pattern ("per 1000",
// "*100", "1000*"); otherwise any bare integer qualifies. If no digits
// match it falls back to spelled-out magnitude words, multiplying every
// match together so compound phrases like "ten thousand" yield 10000.
// The second return value reports whether any pattern matched.
func Extract(text string, multiplicative bool) (int64, bool) {
	stripped := stripRe.ReplaceAllString(text, "")
	if multiplicative {
		if m := multiplicativeRe.FindStringSubmatch(stripped); m != nil {
			digits := m[1]
			if digits == "" {
				digits = m[2]
			}
			if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
				return n, true
			}
		}
	} else if m := plainNumberRe.FindString(stripped); m != "" {
		if n, err := strconv.ParseInt(m, 10, 64); err == nil {
			return n, true
		}
	}

	// Widen separators so adjacent words like "ten thousand" (and the
	// hyphenated "ten-thousand") each get their own boundary match.
	spread := spreadRe.ReplaceAllString(text, "  ")
	matches := magnitudeRe.FindAllStringSubmatch(spread, -1)
	if len(matches) == 0 {
		return 0, false
	}
	n := int64(1)
	for _, m := range matches {
		n *= magnitudes[strings.ToLower(m[1])]
	}
	return n, true
}
