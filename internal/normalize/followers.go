package normalize

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// A comma directly followed by one or two digits before the suffix is read as
// a decimal mark ("1,2k"); a comma followed by three digits is a thousands
// separator and does not participate in the suffix match. A bare leading dot
// (".5k") is a fraction.
var (
	thousandsPattern = regexp.MustCompile(`(?i)(?:^|[^\w.])(\d*\.\d+|\d+(?:,\d{1,2})?)\s*k\b`)
	millionsPattern  = regexp.MustCompile(`(?i)(?:^|[^\w.])(\d*\.\d+|\d+(?:,\d{1,2})?)\s*m\b`)
)

// NormalizeFollowers canonicalizes a follower token into a thousands-grouped
// integer string such as "80,200". Suffix rules are tried in order k, m, then
// plain digits; only the first match in raw is used. It returns "" for input
// that holds no usable number.
func NormalizeFollowers(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if match := thousandsPattern.FindStringSubmatch(trimmed); match != nil {
		return scaled(match[1], 1_000)
	}
	if match := millionsPattern.FindStringSubmatch(trimmed); match != nil {
		return scaled(match[1], 1_000_000)
	}
	return plainDigits(trimmed)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// ParseCount reverses FormatCount. It reports false for anything that is not a
// canonical count.
func ParseCount(canonical string) (int64, bool) {
	digits := strings.ReplaceAll(strings.TrimSpace(canonical), ",", "")
	if digits == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func scaled(number string, factor int64) string {
	number = strings.Replace(number, ",", ".", 1)
	value, ok := new(big.Rat).SetString(number)
	if !ok {
		return ""
	}
	value.Mul(value, new(big.Rat).SetInt64(factor))
	rounded := roundHalfEven(value)
	if !rounded.IsInt64() {
		return ""
	}
	return FormatCount(rounded.Int64())
}

// roundHalfEven rounds a non-negative rational to the nearest integer, ties to even.
func roundHalfEven(value *big.Rat) *big.Int {
	quotient, remainder := new(big.Int).QuoRem(value.Num(), value.Denom(), new(big.Int))
	twice := new(big.Int).Mul(remainder, big.NewInt(2))
	switch twice.Cmp(value.Denom()) {
	case 1:
		quotient.Add(quotient, big.NewInt(1))
	case 0:
		if quotient.Bit(0) == 1 {
			quotient.Add(quotient, big.NewInt(1))
		}
	}
	return quotient
}

func plainDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	value, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return ""
	}
	return FormatCount(value)
}
