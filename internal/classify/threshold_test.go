package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithMinConfidenceClearsWeakSignals(t *testing.T) {
	c := WithMinConfidence(NewKeyword(), 0.7)

	// a single matched term scores 0.6, below the bar
	weak := c.Classify("Login", "")
	assert.False(t, weak.UserFacing)
	assert.Equal(t, 0.6, weak.Confidence)

	// several matched terms clear the bar untouched
	strong := c.Classify("Login page form", "User dashboard with search")
	assert.True(t, strong.UserFacing)
}

func TestWithMinConfidenceZeroIsPassthrough(t *testing.T) {
	k := NewKeyword()
	assert.Same(t, k, WithMinConfidence(k, 0))
}

func TestWithMinConfidenceName(t *testing.T) {
	c := WithMinConfidence(NewKeyword(), 0.5)
	assert.Equal(t, "keyword>=0.50", c.Name())
}
