// Package postprocess strips the wrapping that chat models tend to put
// around a translation even when told to answer with the translation only.
//
// Only wrapping at the edges of the answer is removed. Each phase stands down
// when the user's original text has the same shape, so a quoted input keeps
// its quotes in the translation.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes model wrapping from translated, the translation of original.
// When no phase applies, translated is returned byte for byte; otherwise the
// result is trimmed.
func Clean(translated, original string) string {
	text := translated
	changed := false
	for _, p := range phases {
		var ok bool
		if text, ok = p(text, strings.TrimSpace(original)); ok {
			changed = true
		}
	}
	if !changed {
		return translated
	}
	return strings.TrimSpace(text)
}

// A phase returns the stripped text and whether it removed anything.
type phase func(text, original string) (string, bool)

var phases = []phase{
	removeThinkingBlocks,
	removeInstructionEchoes,
	removeCodeFence,
	removeQuoteWrapping,
}

// RE2 has no backreferences, so each tag pair is spelled out.
var leadingThinkingRe = regexp.MustCompile(
	`(?is)^(?:<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>|<reflection>.*?</reflection>)`,
)

var openingThinkingRe = regexp.MustCompile(`(?i)^<(?:thinking|think|reasoning|reflection)>`)

// removeThinkingBlocks strips reasoning blocks the answer starts with. An
// opening tag that is never closed means the model was cut off before it
// answered, so nothing is left. Tags anywhere else are content.
func removeThinkingBlocks(text, original string) (string, bool) {
	if openingThinkingRe.MatchString(original) {
		return text, false
	}

	changed := false
	for {
		trimmed := strings.TrimLeft(text, " \t\r\n")
		if loc := leadingThinkingRe.FindStringIndex(trimmed); loc != nil {
			text, changed = trimmed[loc[1]:], true
			continue
		}
		if openingThinkingRe.MatchString(trimmed) {
			return "", true
		}
		return text, changed
	}
}

// Chatty preambles may sit on the same line as the translation.
var preamblePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:(?:certainly|sure|of course)[,.!]?\s+)?here(?:'s| is)(?: the| your)? (?:translated text|translation)(?: (?:in|into|to) [\p{L} -]+?)?\s*:`),
}

// Bare labels only count when the translation starts on the next line;
// "Translation into French: salut" on one line may well be the content.
var labelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:the )?(?:translated text|translation)(?: (?:in|into|to) [\p{L} -]+?)?[ \t]*:[ \t]*\r?\n`),
	regexp.MustCompile(`(?i)^перевод(?: на [\p{L} -]+?)?[ \t]*:[ \t]*\r?\n`),
}

func removeInstructionEchoes(text, original string) (string, bool) {
	for _, group := range [][]*regexp.Regexp{preamblePatterns, labelPatterns} {
		for _, re := range group {
			if re.MatchString(original) {
				return text, false
			}
		}
	}

	trimmed := strings.TrimSpace(text)
	for _, group := range [][]*regexp.Regexp{preamblePatterns, labelPatterns} {
		for _, re := range group {
			if loc := re.FindStringIndex(trimmed); loc != nil {
				return trimmed[loc[1]:], true
			}
		}
	}
	return text, false
}

var codeFenceRe = regexp.MustCompile("(?s)^```[\\w-]*\\n(.*?)\\n?```$")

// removeCodeFence unwraps an answer that is entirely one fenced block.
func removeCodeFence(text, original string) (string, bool) {
	if codeFenceRe.MatchString(original) {
		return text, false
	}
	if m := codeFenceRe.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		return m[1], true
	}
	return text, false
}

var quotePairs = map[rune]rune{
	'"':      '"',
	'\'':     '\'',
	'\u00AB': '\u00BB', // « »
	'\u201C': '\u201D', // “ ”
	'\u2018': '\u2019', // ‘ ’
	'\u201E': '\u201C', // „ “
}

func quoteWrapped(s string) bool {
	runes := []rune(s)
	n := len(runes)
	if n < 2 {
		return false
	}
	closing, ok := quotePairs[runes[0]]
	return ok && runes[n-1] == closing
}

// removeQuoteWrapping strips one matching pair of outer quotes, unless the
// original was quoted too.
func removeQuoteWrapping(text, original string) (string, bool) {
	if quoteWrapped(original) {
		return text, false
	}
	trimmed := strings.TrimSpace(text)
	if !quoteWrapped(trimmed) {
		return text, false
	}
	runes := []rune(trimmed)
	return string(runes[1 : len(runes)-1]), true
}
