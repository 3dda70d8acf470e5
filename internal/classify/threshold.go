package classify

import "fmt"

// WithMinConfidence wraps a classifier and discards judgements weaker
// than min: below the threshold every signal flag clears, leaving only
// the confidence visible. A non-positive min returns the classifier
// unwrapped.
func WithMinConfidence(inner Classifier, min float64) Classifier {
	if min <= 0 {
		return inner
	}
	return &threshold{inner: inner, min: min}
}

type threshold struct {
	inner Classifier
	min   float64
}

func (t *threshold) Name() string {
	return fmt.Sprintf("%s>=%.2f", t.inner.Name(), t.min)
}

func (t *threshold) Classify(title, description string) Classification {
	c := t.inner.Classify(title, description)
	if c.Confidence < t.min {
		c.UserFacing = false
		c.Integration = false
		c.Infrastructure = false
	}
	return c
}
