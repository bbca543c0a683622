package client

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name: "error with wrapped error",
			apiError: &APIError{
				StatusCode: 0,
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				URL:        "https://api.example.com/kw?offset=0",
				Err:        errors.New("connection refused"),
			},
			expected: "rank API network error (status 0) for https://api.example.com/kw?offset=0: request failed: connection refused",
		},
		{
			name: "error without wrapped error",
			apiError: &APIError{
				StatusCode: 404,
				ErrorClass: ErrorClassClient,
				Message:    "404 Not Found",
				URL:        "https://api.example.com/kw?offset=100",
			},
			expected: "rank API client error (status 404) for https://api.example.com/kw?offset=100: 404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.apiError.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	apiErr := &APIError{ErrorClass: ErrorClassNetwork, Err: inner}

	if !errors.Is(apiErr, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	var target *APIError
	if !errors.As(error(apiErr), &target) {
		t.Fatal("errors.As should match *APIError")
	}
	if target.ErrorClass != ErrorClassNetwork {
		t.Errorf("ErrorClass = %q, want %q", target.ErrorClass, ErrorClassNetwork)
	}
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		leaks   string
		wantRaw bool
	}{
		{
			name:  "token replaced",
			raw:   "https://api.example.com/kw?access_token=s3cret&offset=0",
			leaks: "s3cret",
		},
		{
			name:    "no token unchanged",
			raw:     "https://api.example.com/kw?offset=0",
			wantRaw: true,
		},
		{
			name:    "unparseable returned as is",
			raw:     "://bad",
			wantRaw: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RedactURL(tt.raw)
			if tt.wantRaw {
				if got != tt.raw {
					t.Errorf("RedactURL(%q) = %q, want unchanged", tt.raw, got)
				}
				return
			}
			if strings.Contains(got, tt.leaks) {
				t.Errorf("RedactURL(%q) = %q still contains %q", tt.raw, got, tt.leaks)
			}
			u, err := url.Parse(got)
			if err != nil {
				t.Fatalf("redacted URL does not parse: %v", err)
			}
			if u.Query().Get(ParamAccessToken) != "REDACTED" {
				t.Errorf("access_token = %q, want REDACTED", u.Query().Get(ParamAccessToken))
			}
			if u.Query().Get(ParamOffset) != "0" {
				t.Error("other parameters should be kept")
			}
		})
	}
}

func TestRedactError(t *testing.T) {
	raw := "http://127.0.0.1:1/kw?access_token=s3cret"
	redacted := RedactURL(raw)

	err := redactError(&url.Error{Op: "Get", URL: raw, Err: errors.New("dial tcp: refused")}, raw, redacted)
	if strings.Contains(err.Error(), "s3cret") {
		t.Errorf("url.Error leaks token: %v", err)
	}

	err = redactError(errors.New("failed for "+raw), raw, redacted)
	if strings.Contains(err.Error(), "s3cret") {
		t.Errorf("plain error leaks token: %v", err)
	}
}
