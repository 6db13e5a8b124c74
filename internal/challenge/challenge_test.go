package challenge

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/youruser/potwapp/internal/render"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		day     int
		wantErr bool
	}{
		{0, false},
		{1, false},
		{5, false},
		{30, false},
		{-1, true},
		{31, true},
	}
	for _, tt := range tests {
		e, err := Lookup(tt.day)
		if tt.wantErr {
			if !errors.Is(err, ErrDayNotFound) {
				t.Fatalf("Lookup(%d) err = %v", tt.day, err)
			}
			continue
		}
		if err != nil || e.Day != tt.day || strings.TrimSpace(e.Prompt) == "" {
			t.Fatalf("Lookup(%d) = %+v, %v", tt.day, e, err)
		}
	}
	if len(All()) != Days+1 {
		t.Fatalf("All() has %d entries", len(All()))
	}
}

func contains(lines []string, s string) bool {
	for _, l := range lines {
		if l == s {
			return true
		}
	}
	return false
}

func TestRenderDayFive(t *testing.T) {
	sc, err := Render(5, Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := entries[5]
	joined := strings.Join(sc.Strings(), " ")
	if !strings.Contains(joined, want) {
		t.Fatalf("day 5 prompt %q missing from %q", want, joined)
	}
	if !contains(sc.Strings(), "05") || strings.Contains(joined, entries[6]) {
		t.Fatalf("day 5 is not a single-prompt card: %q", joined)
	}
}

func TestRenderIntroShowsEveryPrompt(t *testing.T) {
	sc, err := Render(0, Options{Branding: true, Association: "Computing Students Association"})
	if err != nil {
		t.Fatal(err)
	}
	if sc.Template != "challenge-intro" {
		t.Fatalf("template = %s", sc.Template)
	}
	lines := sc.Strings()
	for d := 1; d <= Days; d++ {
		label := fmt.Sprintf("%02d", d)
		if !contains(lines, label) {
			t.Fatalf("grid missing day %s", label)
		}
	}
	for _, s := range lines {
		if strings.Contains(s, "null") || strings.TrimSpace(s) == "" {
			t.Fatalf("bad line %q", s)
		}
	}
	if sc.Picture("logo") != nil {
		t.Fatal("logo slot without a logo url")
	}
}

func TestRenderDayNotFound(t *testing.T) {
	sc, err := Render(31, Options{})
	if !errors.Is(err, ErrDayNotFound) || sc != nil {
		t.Fatalf("Render(31) = %v, %v", sc, err)
	}
}

func TestRenderUsesLogoSlot(t *testing.T) {
	sc, err := Render(3, Options{Branding: true, LogoURL: "https://cdn.example.com/logo.png"})
	if err != nil {
		t.Fatal(err)
	}
	p := sc.Picture("logo")
	if p == nil || len(p.Fallback) == 0 {
		t.Fatalf("logo = %+v", p)
	}
	if sc.Width != render.CardWidth || sc.Height != render.CardHeight {
		t.Fatalf("size = %dx%d", sc.Width, sc.Height)
	}
}

func TestRenderLogoFallbackShowsInitial(t *testing.T) {
	opts := Options{Branding: true, Association: "computer science students", LogoURL: "https://cdn.example.com/logo.png"}
	sc, err := Render(7, opts)
	if err != nil {
		t.Fatal(err)
	}
	p := sc.Picture("logo")
	if p == nil {
		t.Fatal("logo slot missing")
	}
	if !containsGlyph(p.Fallback, "C") {
		t.Fatalf("logo fallback has no initial: %+v", p.Fallback)
	}

	opts.LogoURL = ""
	sc, err = Render(0, opts)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Picture("logo") != nil || !containsGlyph(sc.Nodes, "C") {
		t.Fatal("expected a bare initial glyph without a logo url")
	}
}

func containsGlyph(nodes []render.Node, glyph string) bool {
	for _, n := range nodes {
		if t, ok := n.(*render.Text); ok && len(t.Lines) == 1 && t.Lines[0] == glyph {
			return true
		}
	}
	return false
}
