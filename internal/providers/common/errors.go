package common

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxErrorBody = 2048

// StatusError is returned when an upstream API answers with a non-2xx status.
// Body keeps the raw upstream payload for diagnostics.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "upstream status error"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s HTTP %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s HTTP %d: %s", e.Service, e.StatusCode, body)
}

// NewStatusError drains up to maxErrorBody bytes of resp.Body into a StatusError.
func NewStatusError(service string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// ReadBody reads at most limit bytes of a successful response body.
func ReadBody(resp *http.Response, limit int64) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return body, nil
}

// RedactURLError strips the query string from *url.Error so API keys passed
// as query parameters never reach logs or clients.
func RedactURLError(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	if idx := strings.IndexByte(urlErr.URL, '?'); idx >= 0 {
		urlErr.URL = urlErr.URL[:idx]
	}
	return err
}
