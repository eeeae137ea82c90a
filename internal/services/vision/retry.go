package vision

import (
	"errors"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Patterns are tried in order; the first hit wins.
var retryTextPatterns = []struct {
	re    *regexp.Regexp
	parse func(m []string) time.Duration
}{
	{regexp.MustCompile(`(?i)try again in\s*(\d+)h(\d+)m(\d+(?:\.\d+)?)s`), func(m []string) time.Duration {
		return hours(m[1]) + minutes(m[2]) + seconds(m[3])
	}},
	{regexp.MustCompile(`(?i)try again in\s*(\d+)h(\d+)m\b`), func(m []string) time.Duration {
		return hours(m[1]) + minutes(m[2])
	}},
	{regexp.MustCompile(`(?i)try again in\s*(\d+)m(\d+(?:\.\d+)?)s`), func(m []string) time.Duration {
		return minutes(m[1]) + seconds(m[2])
	}},
	{regexp.MustCompile(`(?i)try again in\s*(\d+)m\b`), func(m []string) time.Duration {
		return minutes(m[1])
	}},
	{regexp.MustCompile(`(?i)try again in\s*(\d+(?:\.\d+)?)s\b`), func(m []string) time.Duration {
		return seconds(m[1])
	}},
}

var resetHeaders = []string{"x-ratelimit-reset-requests", "x-ratelimit-reset-tokens"}

func isRateLimited(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429")
}

// retryDelay resolves how long to wait before the next attempt. A delay in the
// message text wins over Retry-After; reset headers can only lengthen it.
// Without any hint the delay is baseBackoff*2^(attempt-1).
func (c *Client) retryDelay(err error, attempt int) time.Duration {
	delay, found := parseRetryText(err.Error())

	var statusErr *httpStatusError
	if errors.As(err, &statusErr) && statusErr.Header != nil {
		if !found {
			delay, found = parseRetryAfter(statusErr.Header.Get("Retry-After"), c.now())
		}
		for _, name := range resetHeaders {
			if reset, ok := parseResetHeader(statusErr.Header.Get(name), c.now()); ok && reset > delay {
				delay, found = reset, true
			}
		}
	}

	if found && delay > 0 {
		return delay
	}
	return c.backoffDelay(attempt)
}

func (c *Client) backoffDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := math.Pow(2, float64(attempt-1))
	return time.Duration(float64(c.baseBackoff) * factor)
}

func parseRetryText(msg string) (time.Duration, bool) {
	for _, p := range retryTextPatterns {
		if m := p.re.FindStringSubmatch(msg); m != nil {
			return p.parse(m), true
		}
	}
	return 0, false
}

// parseRetryAfter accepts delta seconds (integer or fractional) or an HTTP date.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs * float64(time.Second)), true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := when.Sub(now)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

// parseResetHeader reads an epoch-seconds reset time or a Go-style duration
// such as "6m0s" or "1.5s".
func parseResetHeader(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if isDigits(value) {
		epoch, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, false
		}
		delay := time.Unix(epoch, 0).Sub(now)
		if delay <= 0 {
			return 0, false
		}
		return delay, true
	}
	if delay, err := time.ParseDuration(value); err == nil && delay > 0 {
		return delay, true
	}
	return 0, false
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}

func hours(v string) time.Duration {
	n, _ := strconv.Atoi(v)
	return time.Duration(n) * time.Hour
}

func minutes(v string) time.Duration {
	n, _ := strconv.Atoi(v)
	return time.Duration(n) * time.Minute
}

func seconds(v string) time.Duration {
	f, _ := strconv.ParseFloat(v, 64)
	return time.Duration(f * float64(time.Second))
}
