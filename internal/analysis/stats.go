package analysis

import "math"

// Mean returns the arithmetic mean of data, or 0 for an empty slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// BlockAverage estimates the standard error of the mean of a correlated
// series by averaging over nBlocks contiguous blocks. Successive Monte
// Carlo samples are correlated, so the naive standard error underestimates;
// block means decorrelate once blocks are longer than the correlation time.
func BlockAverage(data []float64, nBlocks int) (mean, stderr float64) {
	mean = Mean(data)
	if nBlocks < 2 || len(data) < nBlocks {
		return mean, 0
	}

	size := len(data) / nBlocks
	blockMeans := make([]float64, nBlocks)
	for b := 0; b < nBlocks; b++ {
		blockMeans[b] = Mean(data[b*size : (b+1)*size])
	}

	variance := 0.0
	for _, m := range blockMeans {
		variance += (m - mean) * (m - mean)
	}
	variance /= float64(nBlocks - 1)
	return mean, math.Sqrt(variance / float64(nBlocks))
}
