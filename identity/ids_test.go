package identity

import "testing"

func TestNextID(t *testing.T) {
	tcases := []struct {
		name string
		ids  []string
		want string
	}{
		{"empty", nil, "1"},
		{"sequential", []string{"1", "2", "3"}, "4"},
		{"gaps and order", []string{"7", "2", "10", "4"}, "11"},
		{"non numeric ignored", []string{"abc", "3", ""}, "4"},
		{"only non numeric", []string{"x", "y"}, "1"},
		{"duplicates", []string{"5", "5"}, "6"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextID(tc.ids); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	if Compare("9", "10") != -1 {
		t.Fatalf("expected 9 < 10 numerically")
	}
	if Compare("10", "9") != 1 {
		t.Fatalf("expected 10 > 9 numerically")
	}
	if Compare("12", "12") != 0 {
		t.Fatalf("expected equal ids to compare 0")
	}
	if Compare("5", "a") != -1 {
		t.Fatalf("expected numeric id before non-numeric")
	}
	if Compare("b", "a") != 1 {
		t.Fatalf("expected lexical fallback")
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" 12 "); got != "12" {
		t.Fatalf("expected trimmed id, got %q", got)
	}
	if got := Normalize("12.0"); got != "12" {
		t.Fatalf("expected integral float rendering stripped, got %q", got)
	}
	if got := Normalize("A-1.0"); got != "A-1.0" {
		t.Fatalf("expected non-numeric id untouched, got %q", got)
	}
}
