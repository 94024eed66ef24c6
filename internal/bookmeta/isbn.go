package bookmeta

import (
	"strings"
)

// NormalizeISBN strips hyphens and spaces and uppercases a trailing x.
func NormalizeISBN(isbn string) string {
	normalized := strings.ReplaceAll(isbn, "-", "")
	normalized = strings.ReplaceAll(normalized, " ", "")
	return strings.ToUpper(normalized)
}

// IsValidISBN10 reports whether s is a structurally valid ISBN-10,
// including its mod-11 check digit.
func IsValidISBN10(s string) bool {
	s = NormalizeISBN(s)
	if len(s) != 10 {
		return false
	}
	sum := 0
	for i := 0; i < 9; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		sum += int(s[i]-'0') * (10 - i)
	}
	last := s[9]
	switch {
	case last == 'X':
		sum += 10
	case last >= '0' && last <= '9':
		sum += int(last - '0')
	default:
		return false
	}
	return sum%11 == 0
}

// IsValidISBN13 reports whether s is a structurally valid ISBN-13,
// including its mod-10 check digit.
func IsValidISBN13(s string) bool {
	s = NormalizeISBN(s)
	if len(s) != 13 {
		return false
	}
	sum := 0
	for i := 0; i < 13; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		d := int(s[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return sum%10 == 0
}

// ISBN10To13 derives the ISBN-13 form of a valid ISBN-10 by prefixing 978
// and recomputing the check digit. Returns "" for invalid input.
func ISBN10To13(isbn10 string) string {
	isbn10 = NormalizeISBN(isbn10)
	if !IsValidISBN10(isbn10) {
		return ""
	}
	payload := "978" + isbn10[:9]
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(payload[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	check := (10 - sum%10) % 10
	return payload + string(rune('0'+check))
}

// ISBN13To10 derives the ISBN-10 form of a valid 978-prefixed ISBN-13 by
// dropping the prefix and recomputing the check digit with the standard
// weighted-sum-mod-11 algorithm (10 rendered as X). Returns "" when the
// input is invalid or carries a 979 prefix, which has no ISBN-10 form.
func ISBN13To10(isbn13 string) string {
	isbn13 = NormalizeISBN(isbn13)
	if !IsValidISBN13(isbn13) || !strings.HasPrefix(isbn13, "978") {
		return ""
	}
	payload := isbn13[3:12]
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(payload[i]-'0') * (10 - i)
	}
	check := (11 - sum%11) % 11
	if check == 10 {
		return payload + "X"
	}
	return payload + string(rune('0'+check))
}

// isbnVariants returns every equivalent normalized form of the given ISBNs:
// the inputs themselves plus cross-derived 10/13 counterparts. Used for
// ISBN-equality matching so two records naming the same edition in
// different encodings still compare equal.
func isbnVariants(isbn10, isbn13 string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(NormalizeISBN(isbn13))
	add(NormalizeISBN(isbn10))
	add(ISBN10To13(isbn10))
	add(ISBN13To10(isbn13))
	return out
}
