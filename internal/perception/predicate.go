package perception

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/vburojevic/simnav/internal/config"
)

// ColorPredicate decides whether a pixel belongs to an obstacle
type ColorPredicate interface {
	Match(c color.Color) bool
}

// HueBand matches pixels whose hue falls in [HueMin, HueMax] with enough
// colorfulness and brightness to rule out shadows and grey floor.
//
// In the "hcl" space (CIE LCh, perceptually uniform) MinChroma and
// MinLightness are compared against chroma and lightness; in "hsv" they are
// compared against saturation and value. A band with HueMin > HueMax wraps
// through 0°.
type HueBand struct {
	Space        string
	HueMin       float64
	HueMax       float64
	MinChroma    float64
	MinLightness float64
}

// NewHueBand builds the predicate described by the perception config
func NewHueBand(cfg config.PerceptionConfig) (*HueBand, error) {
	if cfg.Space != "hcl" && cfg.Space != "hsv" {
		return nil, fmt.Errorf("unsupported color space %q", cfg.Space)
	}
	return &HueBand{
		Space:        cfg.Space,
		HueMin:       cfg.HueMin,
		HueMax:       cfg.HueMax,
		MinChroma:    cfg.MinChroma,
		MinLightness: cfg.MinLightness,
	}, nil
}

// Match implements ColorPredicate
func (b *HueBand) Match(c color.Color) bool {
	col, ok := colorful.MakeColor(c)
	if !ok {
		// fully transparent
		return false
	}

	var h, chroma, light float64
	if b.Space == "hsv" {
		h, chroma, light = col.Hsv()
	} else {
		h, chroma, light = col.Hcl()
	}
	if chroma < b.MinChroma || light < b.MinLightness {
		return false
	}
	return b.hueIn(h)
}

func (b *HueBand) hueIn(h float64) bool {
	if b.HueMin <= b.HueMax {
		return h >= b.HueMin && h <= b.HueMax
	}
	return h >= b.HueMin || h <= b.HueMax
}
