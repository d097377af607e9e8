package conflict

import "testing"

func TestBuildSignatureNumericStability(t *testing.T) {
	// Equivalent numeric encodings must normalize to the same signature.
	want := BuildSignature("5")
	for _, enc := range []string{"5", "5.0", "05", " 5 ", "5.00"} {
		if got := BuildSignature(enc); got != want {
			t.Errorf("BuildSignature(%q) = %q, want %q", enc, got, want)
		}
	}
	if want != "5" {
		t.Errorf("canonical form of 5 = %q, want %q", want, "5")
	}
}

func TestBuildSignature(t *testing.T) {
	cases := []struct {
		name  string
		score string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"integer", "7", "7"},
		{"fractional", "3.25", "3.25"},
		{"trailing zeros dropped", "3.2500", "3.25"},
		{"negative", "-2.5", "-2.5"},
		{"non-numeric falls back to trimmed string", "  high risk  ", "high risk"},
		{"infinity is not numeric", "Inf", "Inf"},
		{"nan is not numeric", "NaN", "NaN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BuildSignature(tc.score); got != tc.want {
				t.Errorf("BuildSignature(%q) = %q, want %q", tc.score, got, tc.want)
			}
		})
	}
}

func TestNormalizeServerSignature(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "7", "7"},
		{"empty", "", ""},
		{"legacy composite keeps last segment", "acct-9|2024-01-02|7", "7"},
		{"single separator", "old|3", "3"},
		{"trims segment", "x| 3 ", "3"},
		{"trailing separator", "3|", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeServerSignature(tc.raw); got != tc.want {
				t.Errorf("NormalizeServerSignature(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestSessionCache(t *testing.T) {
	c := NewSessionCache()
	if _, ok := c.Get("app-1"); ok {
		t.Error("empty cache reported a signature")
	}
	c.Set("app-1", "7")
	got, ok := c.Get("app-1")
	if !ok || got != "7" {
		t.Errorf("Get = %q, %v after Set", got, ok)
	}
}
