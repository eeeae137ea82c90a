package vision

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"igreport/internal/extraction"
)

type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRetry
	outcomeTerminal
)

// attemptOutcome classifies one request so the attempt loop never has to
// inspect errors itself.
type attemptOutcome struct {
	kind   outcomeKind
	result extraction.Result
	delay  time.Duration
	err    error
}

func success(result extraction.Result) attemptOutcome {
	return attemptOutcome{kind: outcomeSuccess, result: result}
}

func retryAfter(delay time.Duration, err error) attemptOutcome {
	return attemptOutcome{kind: outcomeRetry, delay: delay, err: err}
}

func terminal(err error) attemptOutcome {
	return attemptOutcome{kind: outcomeTerminal, err: err}
}

type httpStatusError struct {
	StatusCode int
	Body       string
	Header     http.Header
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("vision request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}
