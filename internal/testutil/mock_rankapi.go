// Package testutil provides testing utilities for the rank exporter.
package testutil

import (
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// MockResponse defines the behavior for one mocked page.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockRankAPI is a configurable mock rank API for testing.
//
// By default it serves a dataset of generated keyword records sliced by the
// limit and offset query parameters. Individual offsets can be overridden.
type MockRankAPI struct {
	server *httptest.Server
	mu     sync.RWMutex

	records   []map[string]string
	overrides map[int]MockResponse

	// Tracking
	offsets      []int
	queries      []url.Values
	requestCount int
}

// NewMockRankAPI creates a new mock rank API server with an empty dataset.
func NewMockRankAPI() *MockRankAPI {
	mock := &MockRankAPI{
		overrides: make(map[int]MockResponse),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the endpoint URL.
func (m *MockRankAPI) URL() string {
	return m.server.URL + "/api/keywords"
}

// Close shuts down the mock server.
func (m *MockRankAPI) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockRankAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offsets = nil
	m.queries = nil
	m.requestCount = 0
}

// SetRecords replaces the served dataset.
func (m *MockRankAPI) SetRecords(records []map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
}

// SetGeneratedRecords serves n generated records named kw-0 ... kw-(n-1).
func (m *MockRankAPI) SetGeneratedRecords(n int) {
	records := make([]map[string]string, n)
	for i := range records {
		records[i] = map[string]string{
			"name":            fmt.Sprintf("kw-%d", i),
			"date":            "20240820",
			"highestWebRank":  strconv.Itoa(i%50 + 1),
			"avgSearchVolume": strconv.Itoa(i * 10),
		}
	}
	m.SetRecords(records)
}

// SetResponse overrides the response for one offset.
func (m *MockRankAPI) SetResponse(offset int, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[offset] = resp
}

// ClearResponse removes the override for offset.
func (m *MockRankAPI) ClearResponse(offset int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.overrides, offset)
}

// Offsets returns the offsets requested so far, in order.
func (m *MockRankAPI) Offsets() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int(nil), m.offsets...)
}

// Queries returns the query parameters of every request, in order.
func (m *MockRankAPI) Queries() []url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]url.Values(nil), m.queries...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockRankAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

func (m *MockRankAPI) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, err := strconv.Atoi(query.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	m.mu.Lock()
	m.requestCount++
	m.offsets = append(m.offsets, offset)
	m.queries = append(m.queries, query)
	override, hasOverride := m.overrides[offset]
	records := m.records
	m.mu.Unlock()

	if hasOverride {
		for key, value := range override.Headers {
			w.Header().Set(key, value)
		}
		status := override.StatusCode
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if override.Body != "" {
			w.Write([]byte(override.Body))
		}
		return
	}

	var page []map[string]string
	if offset < len(records) {
		end := offset + limit
		if end > len(records) {
			end = len(records)
		}
		page = records[offset:end]
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(KeywordsXML(page)))
}

// KeywordsXML renders records as a rank API page. Fields are written in
// sorted order so bodies are stable across runs.
func KeywordsXML(records []map[string]string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString("<keywords>")
	for _, record := range records {
		b.WriteString("<keyword>")
		fields := make([]string, 0, len(record))
		for field := range record {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			fmt.Fprintf(&b, "<%s>%s</%s>", field, html.EscapeString(record[field]), field)
		}
		b.WriteString("</keyword>")
	}
	b.WriteString("</keywords>")
	return b.String()
}

// NewXMLResponse creates a 200 OK response carrying body.
func NewXMLResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/xml; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error",
		Headers: map[string]string{
			"Content-Type": "text/plain",
		},
	}
}

// NewUnauthorizedResponse creates a 401 response for a bad access token.
func NewUnauthorizedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       "<error>invalid access_token</error>",
		Headers: map[string]string{
			"Content-Type": "application/xml",
		},
	}
}
