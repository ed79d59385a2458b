package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"OFF", true, false},
		{"", true, true},
		{"", false, false},
		{"garbage", true, true},
		{"garbage", false, false},
	}
	for _, tt := range tests {
		t.Setenv("CONSENTDRAFT_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("CONSENTDRAFT_TEST_BOOL", tt.defaultValue); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}

func TestParseStringEnv(t *testing.T) {
	t.Setenv("CONSENTDRAFT_TEST_STR", "")
	if got := ParseStringEnv("CONSENTDRAFT_TEST_STR", "fallback"); got != "fallback" {
		t.Errorf("empty env = %q, want fallback", got)
	}
	t.Setenv("CONSENTDRAFT_TEST_STR", "  value  ")
	if got := ParseStringEnv("CONSENTDRAFT_TEST_STR", "fallback"); got != "value" {
		t.Errorf("trimmed env = %q, want value", got)
	}
}
