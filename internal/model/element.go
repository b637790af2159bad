package model

// CorroborationLevel classifies triangulation strength. Ordinal: none is the
// weakest, fully the strongest.
type CorroborationLevel string

const (
	CorroborationNone       CorroborationLevel = "none"
	CorroborationWeakly     CorroborationLevel = "weakly"
	CorroborationModerately CorroborationLevel = "moderately"
	CorroborationStrongly   CorroborationLevel = "strongly"
	CorroborationFully      CorroborationLevel = "fully"
)

// corroborationRank maps levels to numeric ranks for ordinal comparison.
var corroborationRank = map[CorroborationLevel]int{
	CorroborationNone:       0,
	CorroborationWeakly:     1,
	CorroborationModerately: 2,
	CorroborationStrongly:   3,
	CorroborationFully:      4,
}

// Rank returns the ordinal rank of the level (-1 for unknown values).
func (l CorroborationLevel) Rank() int {
	r, ok := corroborationRank[l]
	if !ok {
		return -1
	}
	return r
}

// ConfidenceLevel is the five-tier confidence classification.
type ConfidenceLevel string

const (
	ConfidenceVeryLow  ConfidenceLevel = "very_low"
	ConfidenceLow      ConfidenceLevel = "low"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
)

var confidenceRank = map[ConfidenceLevel]int{
	ConfidenceVeryLow:  0,
	ConfidenceLow:      1,
	ConfidenceMedium:   2,
	ConfidenceHigh:     3,
	ConfidenceVeryHigh: 4,
}

// Rank returns the ordinal rank of the tier (-1 for unknown values).
func (l ConfidenceLevel) Rank() int {
	r, ok := confidenceRank[l]
	if !ok {
		return -1
	}
	return r
}

// Brightness is the three-tier visualization label derived from confidence.
type Brightness string

const (
	BrightnessDark   Brightness = "dark"
	BrightnessDim    Brightness = "dim"
	BrightnessBright Brightness = "bright"
)

// TriangulatedElement is one real-world process element corroborated across
// evidence sources. EvidenceIDs is the sole audit trail back to sources:
// distinct, sorted, never empty, with SourceCount == len(EvidenceIDs).
type TriangulatedElement struct {
	Entity             ExtractedEntity    `json:"entity"`
	SourceCount        int                `json:"source_count"`
	TotalSources       int                `json:"total_sources"`
	TriangulationScore float64            `json:"triangulation_score"`
	CorroborationLevel CorroborationLevel `json:"corroboration_level"`
	EvidenceIDs        []string           `json:"evidence_ids"`
}

// ConsensusElement wraps a triangulated element with the outcome of weighted
// voting over its attribute values. ResolvedAttributes holds the canonical
// value per field; WeightedVoteScore measures agreement strength (distinct
// from TriangulationScore, which measures coverage).
type ConsensusElement struct {
	Triangulated       TriangulatedElement `json:"triangulated"`
	WeightedVoteScore  float64             `json:"weighted_vote_score"`
	ResolvedAttributes map[string]string   `json:"resolved_attributes,omitempty"`
}

// ProcessElement is the persisted form of a scored consensus element, owned
// by exactly one ProcessModel version.
type ProcessElement struct {
	ID                 string             `json:"id"`
	ModelID            string             `json:"model_id"`
	Type               EntityType         `json:"element_type"`
	Name               string             `json:"name"`
	ConfidenceScore    float64            `json:"confidence_score"`
	TriangulationScore float64            `json:"triangulation_score"`
	WeightedVoteScore  float64            `json:"weighted_vote_score"`
	CorroborationLevel CorroborationLevel `json:"corroboration_level"`
	ConfidenceLevel    ConfidenceLevel    `json:"confidence_level"`
	Brightness         Brightness         `json:"brightness_classification"`
	EvidenceCount      int                `json:"evidence_count"`
	EvidenceIDs        []string           `json:"evidence_ids"`
	Attributes         map[string]string  `json:"attributes,omitempty"`
}
