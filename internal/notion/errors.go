package notion

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrMissingToken is returned by NewClient when no credential is set.
	ErrMissingToken = errors.New("notion token is required")
	// ErrNoDataSources means a database exposes no queryable data source.
	ErrNoDataSources = errors.New("no data sources found")
	// ErrCursorLoop means a paginated listing claimed more results but
	// handed back an empty or already-seen cursor.
	ErrCursorLoop = errors.New("pagination cursor did not advance")
)

// MaxRetries bounds how often one request is retried after a transient
// failure.
const MaxRetries = 3

// RetryableError indicates a transient failure (rate limit or server
// error) that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// APIError is a non-retryable error response.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("notion api status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("notion api status %d: %s: %s", e.Status, e.Code, e.Message)
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func decodeAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Code = ""
		apiErr.Message = truncate(string(body), 200)
	}
	// The body's own status field is not trusted over the transport's.
	apiErr.Status = status
	return apiErr
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
