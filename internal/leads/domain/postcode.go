package domain

import (
	"regexp"
	"strings"
)

var digitRun = regexp.MustCompile(`[0-9]+`)

// NormalizePostcode trims the value and returns it when it is exactly four
// digits, otherwise "".
func NormalizePostcode(v string) string {
	v = strings.TrimSpace(v)
	if len(v) != 4 {
		return ""
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return v
}

// ExtractPostcode returns the first run of exactly four digits in the address
// text. Longer or shorter digit runs (street numbers, phone fragments) are
// skipped. Returns "" when no 4-digit run exists.
func ExtractPostcode(address string) string {
	for _, run := range digitRun.FindAllString(address, -1) {
		if len(run) == 4 {
			return run
		}
	}
	return ""
}
