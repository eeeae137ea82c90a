// Package caption renders the per-item report line and parses report dates.
package caption

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the stored report date layout.
const DateLayout = "02/01/2006"

// Format builds the two-line caption for one order position:
//
//	08/08/2025 - Work finished for sakura9neko
//	 IG #2-> Total followers 80,200
func Format(dateStr, identity string, index int, followers string) string {
	identity = strings.TrimSpace(strings.TrimPrefix(identity, "@"))
	return fmt.Sprintf("%s - Work finished for %s\n IG #%d-> Total followers %s", dateStr, identity, index, followers)
}

// Headline returns the first caption line.
func Headline(dateStr, identity string, index int, followers string) string {
	line, _, _ := strings.Cut(Format(dateStr, identity, index, followers), "\n")
	return line
}

// ParseDate accepts "today", DD/MM/YYYY, or YYYY-MM-DD and returns the date
// as DD/MM/YYYY. now supplies the local date for "today".
func ParseDate(text string, now time.Time) (string, error) {
	value := strings.ToLower(strings.TrimSpace(text))
	if value == "" || value == "today" {
		return now.Format(DateLayout), nil
	}
	layout := DateLayout
	if strings.Contains(value, "-") {
		layout = "2006-01-02"
	}
	parsed, err := time.Parse(layout, value)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: use DD/MM/YYYY, YYYY-MM-DD, or today", text)
	}
	return parsed.Format(DateLayout), nil
}
