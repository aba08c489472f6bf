package tuner

// Estimator is a pluggable fundamental-frequency estimator. EstimateFreq
// returns the approximate fundamental of the buffer in Hz, or false when no
// periodic pitch is present. Implementations must not retain the buffer.
//
// Three backends ship with the tuner: YinEstimator (autocorrelation
// difference function, the default), NSDFEstimator (McLeod-style normalized
// square difference), and SpectralPeakEstimator (magnitude-spectrum peak
// tracking).
type Estimator interface {
	EstimateFreq(buf []float64) (float64, bool)
}
