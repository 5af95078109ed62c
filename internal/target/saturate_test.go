package target

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSaturateIdentityBelowNominal(t *testing.T) {
	assert.InDelta(t, 5.0, saturate(5.0), 1e-9)
	assert.InDelta(t, -5.0, saturate(-5.0), 1e-9)
	assert.InDelta(t, nominalDb, saturate(nominalDb), 1e-9)
}

func TestSaturateSymmetricMonotonicBounded(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g1 := rapid.Float64Range(-100, 100).Draw(t, "g1")
		g2 := rapid.Float64Range(-100, 100).Draw(t, "g2")

		assert.InDelta(t, -saturate(-g1), saturate(g1), 1e-9)
		assert.Less(t, saturate(g1), hardDb)
		assert.Greater(t, saturate(g1), -hardDb)

		if g1 < g2 {
			assert.LessOrEqual(t, saturate(g1), saturate(g2))
		}
	})
}

func TestSaturateZeroIsZero(t *testing.T) {
	assert.InDelta(t, 0, saturate(0), 1e-12)
}
