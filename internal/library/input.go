package library

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ParseDateInput converts the eight-digit form entry DDMMYYYY into the
// stored YYYY-MM-DD form. Non-digits are ignored, so "14.07.2023" works too.
// Blank input yields "" and no error.
func ParseDateInput(s string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return "", nil
	}
	if len(digits) != 8 {
		return "", fmt.Errorf("date %q: want DDMMYYYY", s)
	}
	iso := digits[4:8] + "-" + digits[2:4] + "-" + digits[0:2]
	if _, err := time.Parse(time.DateOnly, iso); err != nil {
		return "", fmt.Errorf("date %q: %w", s, err)
	}
	return iso, nil
}

// FormatDateInput is the inverse of ParseDateInput. Values that are not
// YYYY-MM-DD are reduced to their digits.
func FormatDateInput(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) == 3 {
		return parts[2] + parts[1] + parts[0]
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, iso)
}

// JoinOtherTitles joins alternative titles entered one per line into the
// stored "; "-separated form. Blank lines are dropped; nil means none.
func JoinOtherTitles(text string) *string {
	var titles []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if t := strings.TrimSpace(line); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return nil
	}
	joined := strings.Join(titles, "; ")
	return &joined
}
