package util

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBackoffDoublesToMax(t *testing.T) {
	b := NewBackoff(time.Second, 5*time.Second)

	want := []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Fatalf("Next() call %d = %v, want %v", i, got, w)
		}
	}

	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Fatalf("Next() after Reset = %v, want 1s", got)
	}
}

func TestWrapError(t *testing.T) {
	base := errors.New("boom")
	err := WrapError("open file", base)
	if !errors.Is(err, base) {
		t.Fatal("wrapped error lost its cause")
	}
	if got := err.Error(); got != "failed to open file: boom" {
		t.Fatalf("message = %q", got)
	}
	if WrapError("anything", nil) != nil {
		t.Fatal("wrapping nil produced an error")
	}
}

func TestExtractLastError(t *testing.T) {
	stderr := "info: probing\nwarning: odd header\nError: decode failed\n\n"
	if got := ExtractLastError(stderr); got != "Error: decode failed" {
		t.Fatalf("got %q", got)
	}
	if got := ExtractLastError("  \n \n"); got != "" {
		t.Fatalf("got %q for blank stderr", got)
	}

	long := strings.Repeat("x", 300)
	got := ExtractLastError(long)
	if len(got) != maxErrorLineLength+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("long line not truncated: len=%d", len(got))
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{45000, "45s"},
		{154000, "2m 34s"},
		{4980000, "1h 23m"},
		{0, "0s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.ms); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestIsConfigured(t *testing.T) {
	if IsConfigured("") {
		t.Fatal("empty value reported configured")
	}
	if IsConfigured("a", "") {
		t.Fatal("partially empty values reported configured")
	}
	if !IsConfigured("a", "b") {
		t.Fatal("non-empty values reported unconfigured")
	}
}
