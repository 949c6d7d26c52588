// Package perception turns camera frames into obstacle/direction decisions
// using color-threshold segmentation.
package perception

import (
	"image"

	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/domain"
	"go.uber.org/zap"
)

// Lateral sectors of the lower half of a frame
const (
	SectorLeft = iota
	SectorCenter
	SectorRight
)

// Analyzer is the perception pipeline. It is stateless and safe for
// concurrent use.
type Analyzer struct {
	pred            ColorPredicate
	roiHeight       float64
	roiWidth        float64
	threshold       int
	blockedFraction float64
	sectorTurn      float64
	blockedTurn     float64
	log             *zap.Logger
}

// NewAnalyzer builds an analyzer from config
func NewAnalyzer(cfg config.PerceptionConfig, log *zap.Logger) (*Analyzer, error) {
	pred, err := NewHueBand(cfg)
	if err != nil {
		return nil, err
	}
	return NewAnalyzerWithPredicate(cfg, pred, log), nil
}

// NewAnalyzerWithPredicate builds an analyzer around a custom predicate
func NewAnalyzerWithPredicate(cfg config.PerceptionConfig, pred ColorPredicate, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{
		pred:            pred,
		roiHeight:       cfg.ROIHeight,
		roiWidth:        cfg.ROIWidth,
		threshold:       cfg.PixelThreshold,
		blockedFraction: cfg.BlockedFraction,
		sectorTurn:      cfg.SectorTurn,
		blockedTurn:     cfg.BlockedTurn,
		log:             log,
	}
}

// AnalyzeFrame decodes and analyzes one frame. It never fails: an
// undecodable frame is reported as clear with no turn.
func (a *Analyzer) AnalyzeFrame(f *domain.Frame) domain.PerceptionResult {
	img, err := Decode(f)
	if err != nil {
		a.log.Debug("frame undecodable, assuming clear", zap.Error(err))
		return domain.PerceptionResult{}
	}
	return a.AnalyzeImage(img)
}

// AnalyzeImage runs segmentation, the forward obstacle test and sector
// selection over an already decoded image.
func (a *Analyzer) AnalyzeImage(img image.Image) domain.PerceptionResult {
	m := a.Segment(img)
	if m.W == 0 || m.H == 0 {
		return domain.PerceptionResult{}
	}

	roi := ForwardROI(m.W, m.H, a.roiHeight, a.roiWidth)
	pixels := m.Count(roi)

	res := domain.PerceptionResult{
		ObstacleAhead:  pixels > a.threshold,
		ObstaclePixels: pixels,
	}

	sectors := Sectors(m.W, m.H)
	var area [3]int
	for i, r := range sectors {
		res.SectorPixels[i] = m.Count(r)
		area[i] = r.Dx() * r.Dy()
	}
	res.RecommendedTurnDegrees = a.chooseTurn(res.SectorPixels, area)

	if res.ObstacleAhead {
		a.log.Debug("obstacle detected",
			zap.Int("pixels", pixels),
			zap.Ints("sectors", res.SectorPixels[:]),
			zap.Float64("turn", res.RecommendedTurnDegrees))
	}
	return res
}

// chooseTurn picks the clearest sector, preferring center, then right, then
// left. When every sector is blocked it returns the wide exploratory turn.
func (a *Analyzer) chooseTurn(counts, area [3]int) float64 {
	blocked := true
	for i := range counts {
		if area[i] == 0 || float64(counts[i]) < a.blockedFraction*float64(area[i]) {
			blocked = false
			break
		}
	}
	if blocked {
		return a.blockedTurn
	}

	least := min(counts[SectorLeft], counts[SectorCenter], counts[SectorRight])
	switch least {
	case counts[SectorCenter]:
		return 0
	case counts[SectorRight]:
		return -a.sectorTurn
	default:
		return a.sectorTurn
	}
}

// ForwardROI is the near-field region straight ahead: the bottom roiHeight
// of the frame, horizontally centered and roiWidth wide.
func ForwardROI(w, h int, roiHeight, roiWidth float64) image.Rectangle {
	rh := int(float64(h) * roiHeight)
	rw := int(float64(w) * roiWidth)
	x0 := (w - rw) / 2
	return image.Rect(x0, h-rh, x0+rw, h)
}

// Sectors splits the lower half of the frame into left, center and right
func Sectors(w, h int) [3]image.Rectangle {
	return [3]image.Rectangle{
		SectorLeft:   image.Rect(0, h/2, w/3, h),
		SectorCenter: image.Rect(w/3, h/2, 2*w/3, h),
		SectorRight:  image.Rect(2*w/3, h/2, w, h),
	}
}
