package money

// Amount represents a rupiah value in whole currency units. The terminal never
// deals in fractional rupiah, so every derived value is rounded to a whole
// unit exactly once at the point it is computed.
type Amount = int64

// PercentOf returns bps/10000 of base rounded half-up. Non-positive inputs
// yield zero so callers can feed raw user input without pre-checking.
func PercentOf(base Amount, bps int) Amount {
	if base <= 0 || bps <= 0 {
		return 0
	}
	return roundHalfUpDiv(base*int64(bps), 10_000)
}

// BpsFromPercent converts a whole-percent rate (e.g. tax_rate 11) into basis
// points.
func BpsFromPercent(percent int) int {
	if percent <= 0 {
		return 0
	}
	return percent * 100
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi Amount) Amount {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FloorZero returns v floored at zero.
func FloorZero(v Amount) Amount {
	if v < 0 {
		return 0
	}
	return v
}

func roundHalfUpDiv(numerator, denominator int64) int64 {
	return (numerator + denominator/2) / denominator
}
