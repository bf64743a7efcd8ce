package core

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// Fetcher issues the GET for a fetch attempt.
// This allows for easy mocking in tests.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// MockResponse is a canned response served by MockFetcher.
type MockResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.Reader
}

// MockFetcher is a mock implementation of Fetcher for testing.
type MockFetcher struct {
	Responses map[string]MockResponse
	Errors    map[string]error
	Requests  []string
}

// NewMockFetcher creates a new MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Responses: make(map[string]MockResponse),
		Errors:    make(map[string]error),
	}
}

// Get returns the mock response for the given URL.
func (m *MockFetcher) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	m.Requests = append(m.Requests, rawURL)
	if err, ok := m.Errors[rawURL]; ok {
		return nil, err
	}
	resp, ok := m.Responses[rawURL]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Header:     make(http.Header),
			Body:       io.NopCloser(bytes.NewReader(nil)),
		}, nil
	}
	header := resp.Header
	if header == nil {
		header = make(http.Header)
	}
	body := resp.Body
	if body == nil {
		body = bytes.NewReader(nil)
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(body),
	}, nil
}

// AddResponse adds a mock response for a URL.
func (m *MockFetcher) AddResponse(rawURL string, status int, contentType string, body []byte) {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	m.Responses[rawURL] = MockResponse{StatusCode: status, Header: header, Body: bytes.NewReader(body)}
}

// AddError adds a mock error for a URL.
func (m *MockFetcher) AddError(rawURL string, err error) {
	m.Errors[rawURL] = err
}
