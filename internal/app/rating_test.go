package app

import "testing"

func TestClampRatingRange(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{2.5, 2.5},
		{4.999999, 4.999999},
		{5, 5},
		{6, 5},
		{1000, 5},
	}
	for _, tc := range cases {
		if got := clampRating(tc.in); got != tc.want {
			t.Fatalf("clampRating(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClampRatingIdempotent(t *testing.T) {
	for _, v := range []float64{-3, 0, 1.5, 4.999999, 5, 9} {
		once := clampRating(v)
		if twice := clampRating(once); twice != once {
			t.Fatalf("clamp not idempotent for %v: %v then %v", v, once, twice)
		}
	}
}

func TestClampOptionalRating(t *testing.T) {
	if got := clampOptionalRating(nil); got != nil {
		t.Fatalf("nil should stay nil, got %v", got)
	}
	v := 7.0
	got := clampOptionalRating(&v)
	if got == nil || *got != 5 {
		t.Fatalf("clampOptionalRating(7) = %v, want 5", got)
	}
	if v != 7.0 {
		t.Fatalf("input must not be mutated")
	}
}
