package cli

import (
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/vburojevic/simnav/internal/domain"
	"github.com/vburojevic/simnav/internal/output"
	"github.com/vburojevic/simnav/internal/perception"
	"go.uber.org/zap"
)

// AnalyzeCmd runs the perception pipeline over saved frames
type AnalyzeCmd struct {
	Files []string `arg:"" type:"existingfile" help:"PNG or JPEG frames to analyze"`
}

// Run executes the analyze command
func (c *AnalyzeCmd) Run(globals *Globals) error {
	log := globals.log()
	analyzer, err := perception.NewAnalyzer(globals.Config.Perception, log)
	if err != nil {
		return outputErrorCommon(globals, codeInvalidConfig, err.Error(), "perception.space must be hcl or hsv")
	}

	w := output.New(globals.Format, globals.Stdout, globals.Verbose)
	records := make([]*output.PerceptionRecord, 0, len(c.Files))
	for _, path := range c.Files {
		rec := analyzeFile(analyzer, path)
		if rec.Error != "" {
			log.Warn("frame not analyzed", zap.String("file", path), zap.String("error", rec.Error))
		}
		if err := w.WritePerception(rec); err != nil {
			return err
		}
		records = append(records, rec)
	}

	failed := lo.CountBy(records, func(r *output.PerceptionRecord) bool { return r.Error != "" })
	if len(records) > 0 && failed == len(records) {
		msg := fmt.Sprintf("none of %d files could be analyzed", failed)
		return outputErrorCommon(globals, codeUndecodable, msg, "pass PNG or JPEG images")
	}
	return nil
}

func analyzeFile(analyzer *perception.Analyzer, path string) *output.PerceptionRecord {
	rec := &output.PerceptionRecord{File: path}

	data, err := os.ReadFile(path)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}
	img, err := perception.Decode(&domain.Frame{Data: data})
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	b := img.Bounds()
	rec.Width, rec.Height = b.Dx(), b.Dy()
	rec.PerceptionResult = analyzer.AnalyzeImage(img)
	return rec
}
