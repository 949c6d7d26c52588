package nav

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vburojevic/simnav/internal/domain"
)

func angleDist(a, b float64) float64 {
	d := math.Abs(Normalize(a) - Normalize(b))
	return math.Min(d, 360-d)
}

func TestShortestAngleProperty(t *testing.T) {
	check := func(h1, h2 float64) {
		d := ShortestAngle(h1, h2)
		assert.Greater(t, d, -180.0, "h1=%v h2=%v", h1, h2)
		assert.LessOrEqual(t, d, 180.0, "h1=%v h2=%v", h1, h2)
		assert.InDelta(t, 0, angleDist(h1+d, h2), 1e-9, "h1=%v h2=%v", h1, h2)
	}

	for h1 := 0.0; h1 < 360; h1 += 7.5 {
		for h2 := 0.0; h2 < 360; h2 += 7.5 {
			check(h1, h2)
		}
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		check(rng.Float64()*360, rng.Float64()*360)
	}
}

func TestShortestAngle(t *testing.T) {
	tests := []struct {
		from, to, want float64
	}{
		{0, 45, 45},
		{0, 315, -45},
		{10, 350, -20},
		{350, 10, 20},
		{0, 180, 180},
		{180, 0, 180},
		{90, 90, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShortestAngle(tt.from, tt.to), "%v -> %v", tt.from, tt.to)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, 0.0, Normalize(360))
	assert.Equal(t, 330.0, Normalize(-30))
	assert.Equal(t, 90.0, Normalize(450))
	assert.Equal(t, 0.0, Normalize(-720))
	assert.Less(t, Normalize(-1e-15), 360.0)
}

func TestHeadingError(t *testing.T) {
	assert.Equal(t, 45.0, HeadingError(0, domain.CornerNE))
	assert.Equal(t, -45.0, HeadingError(0, domain.CornerNW))
	assert.Equal(t, 135.0, HeadingError(0, domain.CornerSE))
	assert.Equal(t, -135.0, HeadingError(0, domain.CornerSW))
	assert.Equal(t, 0.0, HeadingError(225, domain.CornerSW))
}
