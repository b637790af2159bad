package engine

import (
	"go.uber.org/zap"

	"github.com/sells-group/pov-engine/internal/model"
)

// ConfidenceScore blends coverage (triangulation score) and agreement
// (weighted vote score) into a single bounded confidence using the
// configured weights. Zero total weight falls back to coverage-only.
func (e *Engine) ConfidenceScore(triangulation, vote float64) float64 {
	c := e.cfg.Confidence
	total := c.TriangulationWeight + c.VoteWeight
	if total == 0 {
		zap.L().Warn("classify: both confidence weights are zero, falling back to coverage-only")
		return clamp01(triangulation)
	}
	return clamp01((c.TriangulationWeight*triangulation + c.VoteWeight*vote) / total)
}

// ConfidenceLevel maps a confidence score onto the five-tier scale using
// inclusive lower bounds. Total and monotonic over [0,1] by construction.
func (e *Engine) ConfidenceLevel(score float64) model.ConfidenceLevel {
	c := e.cfg.Confidence
	switch {
	case score >= c.VeryHighFloor:
		return model.ConfidenceVeryHigh
	case score >= c.HighFloor:
		return model.ConfidenceHigh
	case score >= c.MediumFloor:
		return model.ConfidenceMedium
	case score >= c.LowFloor:
		return model.ConfidenceLow
	default:
		return model.ConfidenceVeryLow
	}
}

// BrightnessFor maps a confidence score onto the three-tier visualization
// label used for BPMN color-coding.
func (e *Engine) BrightnessFor(score float64) model.Brightness {
	c := e.cfg.Confidence
	switch {
	case score >= c.BrightFloor:
		return model.BrightnessBright
	case score >= c.DimFloor:
		return model.BrightnessDim
	default:
		return model.BrightnessDark
	}
}

// AggregateConfidence is the arithmetic mean of element confidences. A model
// with zero elements has confidence 0.0, not an error.
func AggregateConfidence(elements []model.ProcessElement) float64 {
	if len(elements) == 0 {
		return 0.0
	}
	var sum float64
	for _, el := range elements {
		sum += el.ConfidenceScore
	}
	return sum / float64(len(elements))
}
