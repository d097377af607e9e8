// Package retainer computes the displayable retainer fee for a credit
// decision. The calculation is pure: decision label plus any server-supplied
// amounts in, display amounts out, no side effects.
package retainer

// Quote holds the displayable amounts derived for a decision.
type Quote struct {
	// Standard is the undiscounted retainer amount.
	Standard float64

	// Reduced is the amount after the tier discount.
	Reduced float64
}

// Calculator maps decision labels to discount fractions. Labels outside the
// tier table ("Credit Frozen", "Failed", absent, anything else) carry no
// known discount, which is a different state from a known discount of zero.
type Calculator struct {
	tiers map[string]float64
}

// New creates a Calculator over the given tier table. The map is not copied;
// callers hand over ownership.
func New(tiers map[string]float64) *Calculator {
	return &Calculator{tiers: tiers}
}

// Discount returns the discount fraction for a label and whether the label is
// a known tier. Callers must branch on ok: a zero discount is a valid known
// value, not "unknown".
func (c *Calculator) Discount(label string) (float64, bool) {
	d, ok := c.tiers[label]
	return d, ok
}

// Quote derives display amounts from the decision label and the amounts the
// server supplied, either of which may be absent.
//
// Reduced: the zero-discount tier is definitionally free, so its reduced
// amount is 0 even when the server supplied a different value. Otherwise a
// server-supplied reduced amount wins verbatim; otherwise standard*discount
// when both are known; otherwise 0.
//
// Standard: a server-quoted amount wins; otherwise reduced/discount when the
// discount is known and non-zero; otherwise 0.
func (c *Calculator) Quote(label string, serverQuoted, serverReduced *float64) Quote {
	discount, known := c.tiers[label]

	var q Quote

	switch {
	case known && discount == 0:
		q.Reduced = 0
	case serverReduced != nil:
		q.Reduced = *serverReduced
	case known && serverQuoted != nil:
		q.Reduced = *serverQuoted * discount
	default:
		q.Reduced = 0
	}

	switch {
	case serverQuoted != nil:
		q.Standard = *serverQuoted
	case known && discount != 0 && serverReduced != nil:
		q.Standard = *serverReduced / discount
	default:
		q.Standard = 0
	}

	return q
}
