package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/pov-engine/internal/model"
)

// singleSourceSeverity is fixed: reliance on one source is always flagged at
// the same level regardless of the element's score.
const singleSourceSeverity = model.SeverityMedium

// DetectGaps runs the three gap detectors over the scored elements and the
// full evidence inventory. All three always run and their results are
// unioned without deduplication: an element can legitimately appear in both
// a single-source gap and a weak-evidence gap.
//
// The inventory is consumed independently of triangulation output, so an
// evidence item that contributed no elements still counts toward category
// coverage — and with zero evidence at all, the missing-category detector
// alone reports every category.
func (e *Engine) DetectGaps(elements []model.ProcessElement, evidence []model.EvidenceItem) []model.EvidenceGap {
	var gaps []model.EvidenceGap
	gaps = append(gaps, singleSourceGaps(elements)...)
	gaps = append(gaps, weakEvidenceGaps(elements)...)
	gaps = append(gaps, e.missingCategoryGaps(evidence)...)

	zap.L().Info("gaps: detection complete",
		zap.Int("elements", len(elements)),
		zap.Int("evidence_items", len(evidence)),
		zap.Int("gaps", len(gaps)),
	)
	return gaps
}

func singleSourceGaps(elements []model.ProcessElement) []model.EvidenceGap {
	var gaps []model.EvidenceGap
	for _, el := range elements {
		if el.EvidenceCount != 1 {
			continue
		}
		gaps = append(gaps, model.EvidenceGap{
			GapType:  model.GapSingleSource,
			Severity: singleSourceSeverity,
			Description: fmt.Sprintf(
				"Element %q is asserted by a single evidence source", el.Name),
			Recommendation: fmt.Sprintf(
				"Corroborate %q with at least one additional independent evidence source", el.Name),
			RelatedElementID: el.ID,
		})
	}
	return gaps
}

func weakEvidenceGaps(elements []model.ProcessElement) []model.EvidenceGap {
	var gaps []model.EvidenceGap
	for _, el := range elements {
		var severity model.GapSeverity
		switch el.ConfidenceLevel {
		case model.ConfidenceVeryLow:
			severity = model.SeverityHigh
		case model.ConfidenceLow:
			severity = model.SeverityMedium
		default:
			// Medium and above is not weak, independent of source count.
			continue
		}
		gaps = append(gaps, model.EvidenceGap{
			GapType:  model.GapWeakEvidence,
			Severity: severity,
			Description: fmt.Sprintf(
				"Element %q has %s confidence (%.2f)", el.Name, el.ConfidenceLevel, el.ConfidenceScore),
			Recommendation: fmt.Sprintf(
				"Collect higher-quality or additional evidence supporting %q", el.Name),
			RelatedElementID: el.ID,
		})
	}
	return gaps
}

func (e *Engine) missingCategoryGaps(evidence []model.EvidenceItem) []model.EvidenceGap {
	present := make(map[model.EvidenceCategory]bool)
	for _, item := range evidence {
		present[item.Category] = true
	}

	var gaps []model.EvidenceGap
	for _, cat := range model.AllEvidenceCategories() {
		if present[cat] {
			continue
		}
		severity := model.SeverityMedium
		if e.cfg.Gaps.IsCritical(cat) {
			severity = model.SeverityHigh
		}
		gaps = append(gaps, model.EvidenceGap{
			GapType:  model.GapMissingData,
			Severity: severity,
			Description: fmt.Sprintf(
				"No evidence items were provided in category %q", cat),
			Recommendation: fmt.Sprintf(
				"Request %s evidence from the engagement team to close this coverage gap", cat),
		})
	}
	return gaps
}
