package pdap

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// StatusError is returned for any non-2xx API response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("api request failed with status %d: %s", e.StatusCode, e.Message)
}

// newStatusError prefers the API's "message" field and falls back to the raw body.
func newStatusError(status int, body []byte) *StatusError {
	msg := ""
	if gjson.ValidBytes(body) {
		msg = gjson.GetBytes(body, "message").String()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if len(msg) > 512 {
		msg = msg[:512] + "...(truncated)"
	}
	return &StatusError{StatusCode: status, Message: msg}
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not an API status error.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the API or a missing token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrNoToken) || StatusCode(err) == http.StatusUnauthorized
}
