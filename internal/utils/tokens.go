package utils

import "unicode/utf8"

// charsPerToken is the usual rule of thumb for GPT-style tokenizers.
const charsPerToken = 4

// CountTokens estimates the tokens in text. Non-empty text is at least 1.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text) / charsPerToken
	if n == 0 && text != "" {
		return 1
	}
	return n
}

// TruncateToTokenLimit keeps the first limit*charsPerToken runes of text.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	keep, seen := limit*charsPerToken, 0
	for pos := range text {
		if seen == keep {
			return text[:pos]
		}
		seen++
	}
	return text
}
