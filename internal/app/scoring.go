package app

import "math"

// Score returns the points awarded for a correct answer given after responseTime seconds on a
// question worth points with a timeLimit in seconds. The award decays linearly to zero at the
// time limit; answers at or beyond it score nothing. timeLimit must be positive.
func Score(points, timeLimit int, responseTime float64) int {
	if timeLimit <= 0 || responseTime >= float64(timeLimit) {
		return 0
	}
	if responseTime < 0 {
		responseTime = 0
	}
	// Multiply before dividing so whole-second answers floor to the exact integer quotient.
	return int(math.Floor(float64(points) * (float64(timeLimit) - responseTime) / float64(timeLimit)))
}
