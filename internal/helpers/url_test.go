package helpers

import "testing"

func TestCanonicalURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases host", "https://WWW.Example.COM/path", "https://www.example.com/path"},
		{"default port", "https://example.com:443/a", "https://example.com/a"},
		{"fragment dropped", "https://example.com/a#section", "https://example.com/a"},
		{"tracking params", "https://example.com/a?utm_source=x&id=1", "https://example.com/a?id=1"},
		{"sorted params", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"schemeless", "example.com/a", "https://example.com/a"},
		{
			"maps place id",
			"https://www.google.com/maps/search/?api=1&query=Eiffel+Tower&query_place_id=ChIJLU7jZClu5kcR4PcOOO6p3I0",
			"https://www.google.com/maps/search/?api=1&query=Eiffel+Tower&query_place_id=ChIJLU7jZClu5kcR4PcOOO6p3I0",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CanonicalURL(tc.in)
			if err != nil {
				t.Fatalf("CanonicalURL(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Fatalf("CanonicalURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	if _, err := CanonicalURL(""); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestCanonicalURLEquivalence(t *testing.T) {
	a, err := CanonicalURL("https://Example.com/venue?b=2&a=1#top")
	if err != nil {
		t.Fatal(err)
	}
	b, err := CanonicalURL("https://example.com/venue?a=1&b=2")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("equivalent urls did not canonicalise equal: %q vs %q", a, b)
	}
}
