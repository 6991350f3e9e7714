// Melograph - Listening History Analytics
// Copyright 2026 The Melograph Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melograph/melograph

package api

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain string", "hello", "hello"},
		{"newline injection", "line1\nline2", "line1\\x0aline2"},
		{"carriage return", "a\rb", "a\\x0db"},
		{"tab", "a\tb", "a\\x09b"},
		{"delete char", "a\x7fb", "a\\x7fb"},
		{"unicode passes", "Björk", "Björk"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogValue(tt.input); got != tt.want {
				t.Errorf("sanitizeLogValue(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGetIntParam(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"present", "limit=25", 25},
		{"absent uses default", "", 100},
		{"non-numeric uses default", "limit=abc", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/?"+tt.query, nil)
			if got := getIntParam(r, "limit", 100); got != tt.want {
				t.Errorf("getIntParam = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetTimeParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/?start=2026-05-01T12:00:00Z", nil)
	got, err := getTimeParam(r, "start")
	if err != nil {
		t.Fatalf("getTimeParam failed: %v", err)
	}
	want := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Errorf("Expected %s, got %v", want, got)
	}

	r = httptest.NewRequest("GET", "/", nil)
	got, err = getTimeParam(r, "start")
	if err != nil || got != nil {
		t.Errorf("Absent parameter should return nil, nil; got %v, %v", got, err)
	}

	r = httptest.NewRequest("GET", "/?start=yesterday", nil)
	if _, err := getTimeParam(r, "start"); err == nil {
		t.Error("Expected error for non-RFC3339 value")
	}
}

func TestValidateRequest(t *testing.T) {
	valid := playsRequest{Limit: 10, Offset: 0}
	if apiErr := validateRequest(&valid); apiErr != nil {
		t.Errorf("Valid request rejected: %+v", apiErr)
	}

	invalid := playsRequest{Limit: 0, Offset: -1}
	apiErr := validateRequest(&invalid)
	if apiErr == nil {
		t.Fatal("Invalid request accepted")
	}
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Expected VALIDATION_ERROR, got %s", apiErr.Code)
	}
	if len(apiErr.Details) != 2 {
		t.Errorf("Expected details for both fields, got %v", apiErr.Details)
	}
}
