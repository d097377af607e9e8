package retainer

import "testing"

func f(v float64) *float64 { return &v }

func testTiers() map[string]float64 {
	return map[string]float64{
		"Gold":   0,
		"Silver": 0.5,
		"Bronze": 0.8,
	}
}

func TestQuote(t *testing.T) {
	calc := New(testTiers())

	cases := []struct {
		name         string
		label        string
		quoted       *float64
		reduced      *float64
		wantStandard float64
		wantReduced  float64
	}{
		{
			name:  "zero-discount tier is free even when server disagrees",
			label: "Gold", quoted: f(1000), reduced: f(250),
			wantStandard: 1000, wantReduced: 0,
		},
		{
			name:  "server reduced amount wins verbatim",
			label: "Silver", quoted: f(1000), reduced: f(420),
			wantStandard: 1000, wantReduced: 420,
		},
		{
			name:  "reduced computed from standard and discount",
			label: "Silver", quoted: f(1000),
			wantStandard: 1000, wantReduced: 500,
		},
		{
			name:  "bronze discount",
			label: "Bronze", quoted: f(1000),
			wantStandard: 1000, wantReduced: 800,
		},
		{
			name:  "standard inferred from reduced and discount",
			label: "Silver", reduced: f(400),
			wantStandard: 800, wantReduced: 400,
		},
		{
			name:  "zero discount never infers standard by division",
			label: "Gold", reduced: f(400),
			wantStandard: 0, wantReduced: 0,
		},
		{
			name:  "unknown label keeps server amounts only",
			label: "Credit Frozen", quoted: f(1000), reduced: f(300),
			wantStandard: 1000, wantReduced: 300,
		},
		{
			name:  "unknown label with no amounts",
			label: "Failed",
			wantStandard: 0, wantReduced: 0,
		},
		{
			name:  "unknown label cannot compute reduced from standard",
			label: "Failed", quoted: f(1000),
			wantStandard: 1000, wantReduced: 0,
		},
		{
			name:  "unknown label cannot infer standard from reduced",
			label: "Failed", reduced: f(400),
			wantStandard: 0, wantReduced: 400,
		},
		{
			name:         "absent label",
			label:        "",
			wantStandard: 0, wantReduced: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := calc.Quote(tc.label, tc.quoted, tc.reduced)
			if q.Standard != tc.wantStandard {
				t.Errorf("Standard = %v, want %v", q.Standard, tc.wantStandard)
			}
			if q.Reduced != tc.wantReduced {
				t.Errorf("Reduced = %v, want %v", q.Reduced, tc.wantReduced)
			}
		})
	}
}

func TestDiscountDistinguishesKnownZeroFromUnknown(t *testing.T) {
	calc := New(testTiers())

	d, ok := calc.Discount("Gold")
	if !ok {
		t.Fatal("Gold is a known tier; Discount reported unknown")
	}
	if d != 0 {
		t.Errorf("Gold discount = %v, want 0", d)
	}

	if _, ok := calc.Discount("Credit Frozen"); ok {
		t.Error("Credit Frozen reported as a known tier")
	}
}
