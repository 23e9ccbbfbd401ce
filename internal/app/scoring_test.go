package app

import "testing"

func TestScore(t *testing.T) {
	cases := []struct {
		points, limit int
		rt            float64
		want          int
	}{
		{1000, 20, 5, 750},
		{1000, 20, 0, 1000},
		{1000, 20, 20, 0},
		{1000, 20, 25, 0},
		{500, 10, 2.5, 375},
		{100, 5, 1, 80},
		{2000, 60, 59.5, 16},
		{110, 11, 5, 60},
		{100, 50, 21, 58},
	}
	for _, tc := range cases {
		if got := Score(tc.points, tc.limit, tc.rt); got != tc.want {
			t.Fatalf("Score(%d, %d, %v) = %d, want %d", tc.points, tc.limit, tc.rt, got, tc.want)
		}
	}
}

func TestScoreNeverExceedsPoints(t *testing.T) {
	for rt := 0.0; rt < 30; rt += 0.25 {
		got := Score(1000, 20, rt)
		if got < 0 || got > 1000 {
			t.Fatalf("score %d out of range at rt=%v", got, rt)
		}
		if rt >= 20 && got != 0 {
			t.Fatalf("expected zero at or past the limit, got %d at rt=%v", got, rt)
		}
	}
}

func TestScoreMatchesIntegerFormula(t *testing.T) {
	for points := 100; points <= 2000; points++ {
		for limit := 5; limit <= 60; limit++ {
			for rt := 0; rt < limit; rt++ {
				want := points * (limit - rt) / limit
				if got := Score(points, limit, float64(rt)); got != want {
					t.Fatalf("Score(%d, %d, %d) = %d, want %d", points, limit, rt, got, want)
				}
			}
		}
	}
}
