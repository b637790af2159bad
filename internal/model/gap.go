package model

// GapType classifies a detected deficiency in evidentiary support.
type GapType string

const (
	GapSingleSource GapType = "single_source"
	GapWeakEvidence GapType = "weak_evidence"
	GapMissingData  GapType = "missing_data"
)

// GapSeverity ranks how urgently a gap should be addressed.
type GapSeverity string

const (
	SeverityLow    GapSeverity = "low"
	SeverityMedium GapSeverity = "medium"
	SeverityHigh   GapSeverity = "high"
)

var severityRank = map[GapSeverity]int{
	SeverityLow:    0,
	SeverityMedium: 1,
	SeverityHigh:   2,
}

// Rank returns the ordinal rank of the severity (-1 for unknown values).
func (s GapSeverity) Rank() int {
	r, ok := severityRank[s]
	if !ok {
		return -1
	}
	return r
}

// EvidenceGap is one detected gap. RelatedElementID is set for gaps tied to
// a specific element (single-source, weak evidence) and empty for
// inventory-level gaps (missing category).
type EvidenceGap struct {
	ID               string      `json:"id"`
	ModelID          string      `json:"model_id"`
	GapType          GapType     `json:"gap_type"`
	Description      string      `json:"description"`
	Severity         GapSeverity `json:"severity"`
	Recommendation   string      `json:"recommendation"`
	RelatedElementID string      `json:"related_element_id,omitempty"`
}
