package cmd

import (
	"testing"
	"time"
)

func TestSanitizeComponent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"My: Page/Name", "My_ Page_Name"},
		{`a<b>c:d"e/f\g|h?i*j`, "a_b_c_d_e_f_g_h_i_j"},
		{"  padded  ", "padded"},
		{"", ""},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := sanitizeComponent(tc.in); got != tc.want {
			t.Errorf("sanitizeComponent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDefaultWriteFilename(t *testing.T) {
	now := time.Date(2026, 8, 25, 13, 4, 5, 0, time.UTC)

	got := defaultWriteFilename("My Page: Test", now)
	want := "My Page_ Test_2026-08-25_130405.html"
	if got != want {
		t.Fatalf("unexpected filename: %q, want %q", got, want)
	}

	got = defaultWriteFilename("", now)
	want = "2026-08-25_130405.html"
	if got != want {
		t.Fatalf("unexpected filename for empty title: %q, want %q", got, want)
	}
}

func TestDocTitle(t *testing.T) {
	resetDocGlobals()
	if got := docTitle(); got != "" {
		t.Fatalf("expected empty title without a document, got %q", got)
	}

	loadTestDocument(t, "<html><head><title>  A \n  Title </title></head><body></body></html>")
	if got := docTitle(); got != "A Title" {
		t.Fatalf("unexpected title: %q", got)
	}

	loadTestDocument(t, `<html><body><p>no title</p></body></html>`)
	if got := docTitle(); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}

func TestOpenSnapStoreCachesStore(t *testing.T) {
	useMemorySnapStore(t)

	s1, err := openSnapStore()
	if err != nil {
		t.Fatalf("openSnapStore: %v", err)
	}
	s2, err := openSnapStore()
	if err != nil {
		t.Fatalf("openSnapStore second call: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("store should be opened once and reused")
	}
}
