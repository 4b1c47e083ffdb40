package money

import "testing"

func TestPercentOf(t *testing.T) {
	cases := []struct {
		name string
		base Amount
		bps  int
		want Amount
	}{
		{"eleven percent of 20000", 20_000, 1100, 2_200},
		{"eleven percent of 15000", 15_000, 1100, 1_650},
		{"rounds half up", 45, 1000, 5},   // 4.5 -> 5
		{"rounds down below half", 44, 1000, 4}, // 4.4 -> 4
		{"zero base", 0, 1100, 0},
		{"negative base", -100, 1100, 0},
		{"zero rate", 20_000, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PercentOf(tc.base, tc.bps); got != tc.want {
				t.Fatalf("PercentOf(%d, %d) = %d, want %d", tc.base, tc.bps, got, tc.want)
			}
		})
	}
}

func TestBpsFromPercent(t *testing.T) {
	if got := BpsFromPercent(11); got != 1100 {
		t.Fatalf("expected 1100 bps, got %d", got)
	}
	if got := BpsFromPercent(-3); got != 0 {
		t.Fatalf("expected 0 bps for negative percent, got %d", got)
	}
}

func TestClampAndFloor(t *testing.T) {
	if got := Clamp(5_000, 0, 3_000); got != 3_000 {
		t.Fatalf("expected clamp to upper bound, got %d", got)
	}
	if got := Clamp(-1, 0, 3_000); got != 0 {
		t.Fatalf("expected clamp to lower bound, got %d", got)
	}
	if got := FloorZero(-250); got != 0 {
		t.Fatalf("expected floor at zero, got %d", got)
	}
	if got := FloorZero(250); got != 250 {
		t.Fatalf("expected value unchanged, got %d", got)
	}
}
