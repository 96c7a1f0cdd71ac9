package handler

import (
	"testing"
	"time"
)

func TestAtoiDefault_ValidInput(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"10", 5, 10},
		{"1", 0, 1},
		{"100", 1, 100},
		{"999", 0, 999},
	}

	for _, tt := range tests {
		result := atoiDefault(tt.input, tt.def)
		if result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}

func TestAtoiDefault_InvalidInput(t *testing.T) {
	tests := []struct {
		input    string
		def      int
		expected int
	}{
		{"", 5, 5},
		{"abc", 10, 10},
		{"-1", 5, 5},
		{"0", 5, 5},
		{"12.5", 5, 5},
		{"12abc", 5, 5},
	}

	for _, tt := range tests {
		result := atoiDefault(tt.input, tt.def)
		if result != tt.expected {
			t.Errorf("atoiDefault(%q, %d) = %d, expected %d", tt.input, tt.def, result, tt.expected)
		}
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"", time.Time{}},
		{"yesterday", time.Time{}},
		{"2026-05-01", time.Date(2026, 5, 1, 0, 0, 0, 0, time.Local)},
		{"2026-05-01T08:30:00Z", time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		result := parseDate(tt.input)
		if !result.Equal(tt.expected) {
			t.Errorf("parseDate(%q) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}
