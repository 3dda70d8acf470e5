package main

import (
	"reflect"
	"testing"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		input    int
		expected string
	}{
		{0, "0"},
		{42, "42"},
		{999, "999"},
		{1000, "1,000"},
		{9999, "9,999"},
		{100000, "100,000"},
		{999999, "999,999"},
		{1000000, "1,000,000"},
		{1234567, "1,234,567"},
		{-1, "-1"},
		{-1000, "-1,000"},
	}

	for _, tt := range tests {
		result := formatNumber(tt.input)
		if result != tt.expected {
			t.Errorf("formatNumber(%d) = %s; want %s", tt.input, result, tt.expected)
		}
	}
}

func TestSortedKeys(t *testing.T) {
	m := map[string]int{
		"PI-2026.3": 2,
		"PI-2026.1": 5,
		"PI-2026.2": 1,
	}

	got := sortedKeys(m)
	want := []string{"PI-2026.1", "PI-2026.2", "PI-2026.3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortedKeys = %v; want %v", got, want)
	}

	if keys := sortedKeys(map[string]int{}); len(keys) != 0 {
		t.Errorf("expected no keys for empty map, got %v", keys)
	}
}
