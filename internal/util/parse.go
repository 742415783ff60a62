package util

import (
	"regexp"
	"strconv"
	"strings"
)

func SafeAtoi(s string) int {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return i
}

var nonNumericRegex = regexp.MustCompile(`[^\d]`)

// CleanNumericString strips everything but digits, e.g. "1,204 comments" -> "1204".
func CleanNumericString(s string) string {
	return nonNumericRegex.ReplaceAllString(s, "")
}
