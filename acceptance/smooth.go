package acceptance

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	iss "github.com/PTMac73/ISS-Code-sub000"
)

// MovingAverage smooths x with a symmetric window of 2·half+1 values.
// Only bins whose window lies entirely inside x are defined: element j of
// the result is the average centred on x[j+half].
func MovingAverage(x []float64, half int) ([]float64, error) {
	width := 2*half + 1
	switch {
	case half < 0:
		return nil, fmt.Errorf("acceptance: negative moving-average half-width %d: %w", half, iss.ErrConfig)
	case width > len(x):
		return nil, fmt.Errorf(
			"acceptance: moving-average window %d wider than %d bins: %w",
			width, len(x), iss.ErrConfig,
		)
	}

	out := make([]float64, len(x)-width+1)
	sum := floats.Sum(x[:width])
	out[0] = sum / float64(width)
	for j := 1; j < len(out); j++ {
		sum += x[j+width-1] - x[j-1]
		out[j] = sum / float64(width)
	}
	return out, nil
}
