package metrics

import (
	"math"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// Z values for common two-sided confidence levels.
const (
	Z90 = 1.645
	Z95 = 1.96
	Z99 = 2.576
)

// ConfidenceInterval returns the Wilson score interval of an accuracy
// measured on n test instances. accPercent is in [0, 100]; the bounds
// are fractions in [0, 1].
func ConfidenceInterval(n int, accPercent, z float64) (lower, upper float64, err error) {
	if n <= 0 {
		return 0, 0, errors.NewValidationError("n", "must be positive", n)
	}
	if accPercent < 0 || accPercent > 100 {
		return 0, 0, errors.NewValidationError("accPercent", "must be in [0, 100]", accPercent)
	}
	N := float64(n)
	acc := accPercent / 100
	z2 := z * z
	spread := z * math.Sqrt(z2+4*N*acc-4*N*acc*acc)
	denom := 2 * (N + z2)
	lower = (2*N*acc + z2 - spread) / denom
	upper = (2*N*acc + z2 + spread) / denom
	return lower, upper, nil
}
