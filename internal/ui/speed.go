package ui

// rateSteps are the speeds offered by the < and > keys.
var rateSteps = []float64{0.5, 0.75, 1, 1.25, 1.5, 2}

// nextRate returns the closest step above (dir > 0) or below (dir < 0) cur,
// or cur when there is none.
func nextRate(cur float64, dir int) float64 {
	if dir > 0 {
		for _, r := range rateSteps {
			if r > cur+1e-9 {
				return r
			}
		}
		return cur
	}
	for i := len(rateSteps) - 1; i >= 0; i-- {
		if rateSteps[i] < cur-1e-9 {
			return rateSteps[i]
		}
	}
	return cur
}
