package main

import (
	"bytes"
	"strings"
	"testing"

	"vecna/internal/pipeline"
)

func TestRenderStateColorize(t *testing.T) {
	if got := renderState(pipeline.StatePublished, false); got != "published" {
		t.Fatalf("plain = %q", got)
	}
	colored := renderState(pipeline.StatePublished, true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green published badge, got %q", colored)
	}
}

func TestRenderFlags(t *testing.T) {
	cases := []struct {
		rulebook, content, live bool
		want                    string
	}{
		{false, false, false, "-"},
		{true, false, false, "rulebook"},
		{true, true, true, "rulebook,content,live"},
	}
	for _, tc := range cases {
		if got := renderFlags(tc.rulebook, tc.content, tc.live); got != tc.want {
			t.Fatalf("renderFlags(%v,%v,%v) = %q, want %q", tc.rulebook, tc.content, tc.live, got, tc.want)
		}
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("g1", statusWarn, "imported -> published: no rule", false)
	if line != "  g1:          [WARN] imported -> published: no rule" {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestShouldColorizeBuffer(t *testing.T) {
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("buffers are never terminals")
	}
}
