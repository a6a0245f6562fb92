package validator

import (
	"strings"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"typical public key", "4Nd1mYvM6K2V9qzS3xWb8uJcR7pT5hFgD2aQeLnZsHxy", true},
		{"minimum length", strings.Repeat("A", 32), true},
		{"empty", "", false},
		{"too short", "abc", false},
		{"too long", strings.Repeat("A", 45), false},
		{"contains zero digit", strings.Repeat("A", 31) + "0", false},
		{"contains capital O", strings.Repeat("A", 31) + "O", false},
		{"contains lowercase l", strings.Repeat("A", 31) + "l", false},
		{"contains symbol", strings.Repeat("A", 31) + "-", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.address); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}
