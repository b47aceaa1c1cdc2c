package app

const (
	minRating = 0
	maxRating = 5
)

// clampRating forces a rating into [0,5]. Input schemas already reject
// out-of-range values with a field error; this clamp runs independently at
// the persistence boundary and again at read-time decoration, so no
// out-of-range value can reach storage or output through any code path.
func clampRating(v float64) float64 {
	if v < minRating {
		return minRating
	}
	if v > maxRating {
		return maxRating
	}
	return v
}

// clampOptionalRating maps absent to absent, otherwise clamps.
func clampOptionalRating(v *float64) *float64 {
	if v == nil {
		return nil
	}
	clamped := clampRating(*v)
	return &clamped
}
