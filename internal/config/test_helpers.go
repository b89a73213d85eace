package config

import (
	"net/http"
	"sync"
)

// mockRoundTripper answers requests with handler and records every request it sees,
// so tests can count attempts and inspect what a retried request carried.
type mockRoundTripper struct {
	mu       sync.Mutex
	requests []*http.Request
	handler  func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.handler(req)
}

func (m *mockRoundTripper) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func newMockClient(handler func(req *http.Request) (*http.Response, error)) (*http.Client, *mockRoundTripper) {
	mock := &mockRoundTripper{handler: handler}
	return &http.Client{Transport: mock}, mock
}
