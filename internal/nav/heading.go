package nav

import (
	"math"

	"github.com/vburojevic/simnav/internal/domain"
)

// Normalize wraps deg into [0, 360)
func Normalize(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d < 0 {
		d += 360
	}
	if d >= 360 {
		d -= 360
	}
	return d
}

// ShortestAngle returns the signed rotation in (-180, 180] that turns a
// heading of from into a heading of to.
func ShortestAngle(from, to float64) float64 {
	d := math.Mod(to-from, 360)
	if d <= -180 {
		d += 360
	}
	if d > 180 {
		d -= 360
	}
	return d
}

// HeadingError is the signed rotation from heading toward the corner
func HeadingError(heading float64, corner domain.Corner) float64 {
	return ShortestAngle(heading, corner.TargetHeading())
}
