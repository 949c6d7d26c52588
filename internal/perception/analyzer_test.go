package perception

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap/zaptest"
)

var (
	floorGrey     = color.RGBA{128, 128, 128, 255}
	obstacleGreen = color.RGBA{0, 200, 0, 255}
)

// frameImage returns a w x h image filled with the floor color
func frameImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{floorGrey}, image.Point{}, draw.Src)
	return img
}

func paint(img *image.RGBA, r image.Rectangle, c color.Color) {
	draw.Draw(img, r, &image.Uniform{c}, image.Point{}, draw.Src)
}

func encodePNG(t *testing.T, img image.Image) *domain.Frame {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &domain.Frame{Data: buf.Bytes(), MediaType: "image/png"}
}

func newAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(config.Default().Perception, zaptest.NewLogger(t))
	require.NoError(t, err)
	return a
}

func TestAnalyzeBackgroundOnly(t *testing.T) {
	a := newAnalyzer(t)
	res := a.AnalyzeFrame(encodePNG(t, frameImage(100, 100)))

	assert.False(t, res.ObstacleAhead)
	assert.Zero(t, res.ObstaclePixels)
	assert.Equal(t, 0.0, res.RecommendedTurnDegrees)
}

func TestAnalyzeObstacleFillsROI(t *testing.T) {
	a := newAnalyzer(t)
	img := frameImage(100, 100)
	roi := ForwardROI(100, 100, 0.4, 0.6)
	paint(img, roi, obstacleGreen)

	res := a.AnalyzeFrame(encodePNG(t, img))
	assert.True(t, res.ObstacleAhead)
	assert.Equal(t, roi.Dx()*roi.Dy(), res.ObstaclePixels)
}

func TestAnalyzeObstacleBelowThreshold(t *testing.T) {
	a := newAnalyzer(t)
	img := frameImage(100, 100)
	// 15x20 = 300 pixels, threshold is strictly greater than 300
	paint(img, image.Rect(40, 70, 55, 90), obstacleGreen)

	res := a.AnalyzeImage(img)
	assert.False(t, res.ObstacleAhead)
	assert.Equal(t, 300, res.ObstaclePixels)
}

func TestAnalyzeObstacleOutsideROIIgnored(t *testing.T) {
	a := newAnalyzer(t)
	img := frameImage(100, 100)
	// top half and far edges are outside the forward region
	paint(img, image.Rect(0, 0, 100, 50), obstacleGreen)
	paint(img, image.Rect(0, 60, 20, 100), obstacleGreen)

	res := a.AnalyzeImage(img)
	assert.False(t, res.ObstacleAhead)
	assert.Zero(t, res.ObstaclePixels)
}

func TestAnalyzeUndecodableFrameAssumesClear(t *testing.T) {
	a := newAnalyzer(t)

	for _, f := range []*domain.Frame{nil, {}, {Data: []byte("not an image")}} {
		res := a.AnalyzeFrame(f)
		assert.Equal(t, domain.PerceptionResult{}, res)
	}
}

func TestDirectionSelection(t *testing.T) {
	const w, h = 99, 100
	sectors := Sectors(w, h)
	block := func(s int, n int) image.Rectangle {
		r := sectors[s]
		return image.Rect(r.Min.X, r.Min.Y, r.Min.X+n, r.Min.Y+10)
	}

	tests := []struct {
		name   string
		blocks map[int]int // sector -> block width (x10 rows)
		turn   float64
	}{
		{"empty frame goes straight", map[int]int{}, 0},
		{"equal counts prefer center", map[int]int{SectorLeft: 10, SectorCenter: 10, SectorRight: 10}, 0},
		{"right clearest turns right", map[int]int{SectorLeft: 20, SectorCenter: 20, SectorRight: 5}, -30},
		{"left clearest turns left", map[int]int{SectorLeft: 5, SectorCenter: 20, SectorRight: 20}, 30},
		{"left and right tie prefers right", map[int]int{SectorLeft: 5, SectorCenter: 20, SectorRight: 5}, -30},
		{"center ties with left prefers center", map[int]int{SectorLeft: 5, SectorCenter: 5, SectorRight: 20}, 0},
	}

	a := newAnalyzer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := frameImage(w, h)
			for s, n := range tt.blocks {
				paint(img, block(s, n), obstacleGreen)
			}
			res := a.AnalyzeImage(img)
			assert.Equal(t, tt.turn, res.RecommendedTurnDegrees)
		})
	}
}

func TestDirectionAllBlockedTurnsWide(t *testing.T) {
	a := newAnalyzer(t)
	img := frameImage(99, 100)
	paint(img, image.Rect(0, 50, 99, 100), obstacleGreen)

	res := a.AnalyzeImage(img)
	assert.True(t, res.ObstacleAhead)
	assert.Equal(t, 45.0, res.RecommendedTurnDegrees)
}

func TestHueBand(t *testing.T) {
	hcl, err := NewHueBand(config.Default().Perception)
	require.NoError(t, err)

	hsvCfg := config.Default().Perception
	hsvCfg.Space = "hsv"
	hsvCfg.HueMin, hsvCfg.HueMax = 70, 170
	hsvCfg.MinChroma, hsvCfg.MinLightness = 0.196, 0.196
	hsv, err := NewHueBand(hsvCfg)
	require.NoError(t, err)

	tests := []struct {
		name  string
		c     color.Color
		match bool
	}{
		{"green", obstacleGreen, true},
		{"dim green", color.RGBA{20, 120, 30, 255}, true},
		{"grey floor", floorGrey, false},
		{"black", color.RGBA{0, 0, 0, 255}, false},
		{"blue", color.RGBA{0, 0, 200, 255}, false},
		{"red", color.RGBA{200, 0, 0, 255}, false},
		{"transparent", color.RGBA{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, hcl.Match(tt.c), "hcl")
			assert.Equal(t, tt.match, hsv.Match(tt.c), "hsv")
		})
	}

	_, err = NewHueBand(config.PerceptionConfig{Space: "rgb"})
	assert.Error(t, err)
}

func TestHueBandWraps(t *testing.T) {
	red := &HueBand{Space: "hsv", HueMin: 340, HueMax: 20, MinChroma: 0.2, MinLightness: 0.2}
	assert.True(t, red.Match(color.RGBA{220, 10, 10, 255}))
	assert.False(t, red.Match(obstacleGreen))
}

func TestForwardROIGeometry(t *testing.T) {
	r := ForwardROI(100, 100, 0.4, 0.6)
	assert.Equal(t, image.Rect(20, 60, 80, 100), r)

	s := Sectors(90, 60)
	assert.Equal(t, image.Rect(0, 30, 30, 60), s[SectorLeft])
	assert.Equal(t, image.Rect(30, 30, 60, 60), s[SectorCenter])
	assert.Equal(t, image.Rect(60, 30, 90, 60), s[SectorRight])
}

func TestSegmentHonorsImageOrigin(t *testing.T) {
	a := newAnalyzer(t)
	img := image.NewRGBA(image.Rect(10, 10, 20, 20))
	draw.Draw(img, img.Bounds(), &image.Uniform{floorGrey}, image.Point{}, draw.Src)
	img.Set(10, 10, obstacleGreen)

	m := a.Segment(img)
	assert.Equal(t, 10, m.W)
	assert.True(t, m.At(0, 0))
	assert.False(t, m.At(1, 1))
	assert.Equal(t, 1, m.Count(image.Rect(0, 0, 10, 10)))
}
