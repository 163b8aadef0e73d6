// Package annotate extracts hashtags and mentions from post and comment text.
// Everything here is pure: no storage, no logging, no errors.
package annotate

import (
	"regexp"
	"strings"
)

var (
	hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)
	mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)
)

// ExtractHashtags returns the lowercased tag names in order of appearance.
// Duplicates are kept; the hashtag store de-duplicates through its unique name.
func ExtractHashtags(text string) []string {
	return extract(hashtagPattern, text)
}

// ExtractMentions returns lowercased candidate display names for every @name
// token. Resolution against real characters happens in the store.
func ExtractMentions(text string) []string {
	return extract(mentionPattern, text)
}

// NormalizeTag turns user input such as " #GameDay " into "gameday".
func NormalizeTag(raw string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
}

// Unique drops repeated names while keeping first-appearance order.
func Unique(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func extract(re *regexp.Regexp, text string) []string {
	out := []string{}
	if text == "" {
		return out
	}
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.ToLower(m[1]))
	}
	return out
}
