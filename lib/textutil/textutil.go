package textutil

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeTitle lowercases and trims a title so that two renderings of the
// same title compare equal.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// NormalizeName lowercases a name and strips all whitespace out of it.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// CollapseWhitespace trims text and replaces every run of whitespace with a
// single space.
func CollapseWhitespace(text string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(text), " ")
}

var digitsRegex = regexp.MustCompile(`[0-9]+`)

// FindNumber returns the first run of digits in text as an int.
func FindNumber(text string) (int, bool) {
	match := digitsRegex.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LeadingNumber is FindNumber but 0 when there is no number.
func LeadingNumber(text string) int {
	n, _ := FindNumber(text)
	return n
}

// ClosestMatch returns the candidate most similar to name by Jaro-Winkler
// similarity. ok is false when no candidate reaches threshold.
func ClosestMatch(name string, candidates []string, threshold float64) (match string, ok bool) {
	normalized := NormalizeName(name)

	best := 0.0
	for _, c := range candidates {
		if NormalizeName(c) == normalized {
			return c, true
		}
		similarity := matchr.JaroWinkler(normalized, NormalizeName(c), false)
		if similarity > best {
			best = similarity
			match = c
		}
	}
	if best < threshold {
		return "", false
	}
	return match, true
}
