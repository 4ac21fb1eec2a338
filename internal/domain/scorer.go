package domain

import "errors"

// ErrModelUnavailable is returned when no scoring artifact is loaded. The
// decision pipeline fails closed on it: no decision is produced from rules
// alone.
var ErrModelUnavailable = errors.New("scoring model is not loaded")

// Scorer is the contract the decision engine requires from the statistical
// model. The engine assumes nothing about the underlying algorithm, only
// that Score maps a feature set to a probability in [0,1] and that
// TopFactors ordering is stable (descending importance, ties broken by
// factor name).
type Scorer interface {
	// Score returns the probability of credit-worthiness for the given
	// features. Returns ErrModelUnavailable when no artifact is loaded.
	Score(features FeatureSet) (float64, error)

	// TopFactors returns the n most important model factors, descending.
	TopFactors(n int) []ModelFactor

	// Metrics returns the offline evaluation metrics of the loaded
	// artifact (accuracy, precision, recall, f1, auc).
	Metrics() map[string]float64
}
