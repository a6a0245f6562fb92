// Package settlement implements the probabilistic settlement decision.
//
// The rule is a weighted coin flip: a seed is reduced modulo 10000 and the
// payment executes when the result falls below the threshold. The threshold
// is expressed in parts-per-10000, so the execution probability is
// threshold/10000 regardless of how much intent has accumulated — only the
// payout magnitude scales with the intent. That property is deliberate and
// must not be altered without revisiting the channel economics.
package settlement

const (
	// Modulus reduces the seed to the comparison range.
	Modulus = 10000

	// DefaultThreshold is 100 parts-per-10000, i.e. a 1% execution chance.
	DefaultThreshold = 100
)

// Outcome is the result of evaluating one settlement attempt.
type Outcome struct {
	Executed    bool
	RandomValue uint64
	Threshold   uint64
}

// Evaluate applies the decision rule for a given seed and threshold.
// It is a pure function: same inputs, same outcome.
func Evaluate(seed, threshold uint64) Outcome {
	randomValue := seed % Modulus
	return Outcome{
		Executed:    randomValue < threshold,
		RandomValue: randomValue,
		Threshold:   threshold,
	}
}

// ExpectedRate returns the nominal execution probability for a threshold.
func ExpectedRate(threshold uint64) float64 {
	return float64(threshold) / float64(Modulus)
}
