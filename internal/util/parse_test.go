package util

import "testing"

func TestSafeAtoi(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"42", 42},
		{" 42 ", 42},
		{"", 0},
		{"abc", 0},
		{"12abc", 0},
		{"-7", -7},
	}
	for _, tt := range tests {
		if got := SafeAtoi(tt.in); got != tt.want {
			t.Errorf("SafeAtoi(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestCleanNumericString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1,204 comments", "1204"},
		{"98 comentários", "98"},
		{"no digits", ""},
		{"3.5k", "35"},
	}
	for _, tt := range tests {
		if got := CleanNumericString(tt.in); got != tt.want {
			t.Errorf("CleanNumericString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
