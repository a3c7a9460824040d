package catalog

// COPTable is a bilinear-interpolated coefficient-of-performance surface:
// rows indexed by source temperature (degC), columns by supply temperature
// (degC). Grounded in utilities.py's COP_WP, which reads the same matrix
// layout from a semicolon CSV.
type COPTable struct {
	SupplyTemps []float64 // column axis, ascending
	SourceTemps []float64 // row axis, ascending
	Values      [][]float64
}

// Interpolate returns the bilinearly-interpolated COP for the given source
// and supply temperatures, clamping to the table's domain at the edges.
func (t *COPTable) Interpolate(sourceC, supplyC float64) float64 {
	si, sf := locate(t.SourceTemps, sourceC)
	ci, cf := locate(t.SupplyTemps, supplyC)

	v00 := t.Values[si][ci]
	v01 := t.Values[si][ci+1]
	v10 := t.Values[si+1][ci]
	v11 := t.Values[si+1][ci+1]

	v0 := v00*(1-cf) + v01*cf
	v1 := v10*(1-cf) + v11*cf
	return v0*(1-sf) + v1*sf
}

// locate finds the bracketing index i (such that axis[i] <= x <= axis[i+1])
// and the fractional position within that bracket, clamping out-of-range x.
func locate(axis []float64, x float64) (int, float64) {
	n := len(axis)
	if n < 2 {
		return 0, 0
	}
	if x <= axis[0] {
		return 0, 0
	}
	if x >= axis[n-1] {
		return n - 2, 1
	}
	for i := 0; i < n-1; i++ {
		if x >= axis[i] && x <= axis[i+1] {
			span := axis[i+1] - axis[i]
			if span == 0 {
				return i, 0
			}
			return i, (x - axis[i]) / span
		}
	}
	return n - 2, 1
}
