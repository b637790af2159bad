package model

// ContradictionValue is one source's asserted value for a contested field.
type ContradictionValue struct {
	EvidenceID    string  `json:"evidence_id"`
	AssertedValue string  `json:"asserted_value"`
	QualityScore  float64 `json:"quality_score"`
}

// Contradiction records a disagreement between sources about one element's
// field value, together with how it was resolved. It is an audit record, not
// an error signal: automatically resolved disagreements are kept too.
// Immutable once attached to a model version.
type Contradiction struct {
	ID               string               `json:"id"`
	ModelID          string               `json:"model_id"`
	ElementName      string               `json:"element_name"`
	FieldName        string               `json:"field_name"`
	Values           []ContradictionValue `json:"values"`
	ResolutionValue  string               `json:"resolution_value"`
	ResolutionReason string               `json:"resolution_reason"`
	EvidenceIDs      []string             `json:"evidence_ids"`
}
