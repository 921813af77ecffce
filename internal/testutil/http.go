package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"branchkit/internal/errors"
)

// NewJSONRequest creates a new HTTP request with JSON body
func NewJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// Serve sends a JSON request through h and returns the recorded response
func Serve(t *testing.T, h http.Handler, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	req, err := NewJSONRequest(method, url, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// DecodeJSON decodes JSON from a reader
func DecodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// ParseErrorResponse decodes the API error envelope
func ParseErrorResponse(r io.Reader) (*errors.HTTPErrorResponse, error) {
	var errResp errors.HTTPErrorResponse
	if err := DecodeJSON(r, &errResp); err != nil {
		return nil, err
	}
	return &errResp, nil
}
