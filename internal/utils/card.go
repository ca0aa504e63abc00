package utils

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrCardNumberFormat = errors.New("card number must contain exactly 16 digits")
	ErrCardNumberLuhn   = errors.New("card number failed checksum")
	ErrExpiryFormat     = errors.New("expiry must be MM/YY or MMYY")
	ErrExpiryPast       = errors.New("card has expired")
)

// NormalizeCardNumber strips spaces and dashes and checks length and checksum.
func NormalizeCardNumber(raw string) (string, error) {
	number := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	if len(number) != 16 {
		return "", ErrCardNumberFormat
	}
	if !isDigits(number) {
		return "", ErrCardNumberFormat
	}
	if !Luhn(number) {
		return "", ErrCardNumberLuhn
	}
	return number, nil
}

// Luhn reports whether a digit string passes the Luhn checksum.
func Luhn(number string) bool {
	if number == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// MaskCardNumber hides everything but the last four digits.
func MaskCardNumber(number string) string {
	if len(number) < 4 {
		return "**** **** **** ****"
	}
	return "**** **** **** " + number[len(number)-4:]
}

// ParseExpiry parses MM/YY or MMYY and returns month and four-digit year.
// A card is rejected once its expiry month has started.
func ParseExpiry(raw string, now time.Time) (int, int, error) {
	value := strings.TrimSpace(raw)
	if len(value) == 5 && value[2] == '/' {
		value = value[:2] + value[3:]
	}
	if len(value) != 4 || !isDigits(value) {
		return 0, 0, ErrExpiryFormat
	}
	month, _ := strconv.Atoi(value[:2])
	if month < 1 || month > 12 {
		return 0, 0, ErrExpiryFormat
	}
	yy, _ := strconv.Atoi(value[2:])
	year := 2000 + yy

	expiry := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if !expiry.After(current) {
		return 0, 0, ErrExpiryPast
	}
	return month, year, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
