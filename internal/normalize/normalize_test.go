package normalize_test

import (
	"testing"

	"igreport/internal/normalize"
)

func TestNormalizeFollowers(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1.9k", "1,900"},
		{"2.03m", "2,030,000"},
		{"1914", "1,914"},
		{"", ""},
		{"abc", ""},
		{"80.2K followers", "80,200"},
		{"12 k", "12,000"},
		{"1,2k", "1,200"},
		{"12,500 followers", "12,500"},
		{"12,500k", "500,000"},
		{"0.0025k", "2"},
		{"0.0035k", "4"},
		{"3m and 2k", "2,000"},
		{"1.5M", "1,500,000"},
		{"followers: 1 234 567", "1,234,567"},
		{"99999999999999999999999", ""},
		{"kilo", ""},
		{".5k", "500"},
		{"x .5k", "500"},
		{".5m", "500,000"},
		{"0.5k", "500"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := normalize.NormalizeFollowers(tt.raw); got != tt.want {
				t.Fatalf("NormalizeFollowers(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanIdentity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"@Sakura9Neko!", "sakura9neko"},
		{"  @@double ", "double"},
		{"first.last_1", "first.last_1"},
		{"héllo wörld", "hllowrld"},
		{"", ""},
		{"   ", ""},
		{"@", ""},
	}
	for _, tt := range tests {
		if got := normalize.CleanIdentity(tt.raw); got != tt.want {
			t.Fatalf("CleanIdentity(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParseCountRoundTrip(t *testing.T) {
	value, ok := normalize.ParseCount("2,030,000")
	if !ok || value != 2030000 {
		t.Fatalf("unexpected parse result %d %v", value, ok)
	}
	if _, ok := normalize.ParseCount(""); ok {
		t.Fatal("expected empty input to fail")
	}
	if normalize.FormatCount(80200) != "80,200" {
		t.Fatalf("unexpected format %q", normalize.FormatCount(80200))
	}
}
