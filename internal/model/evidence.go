package model

// EvidenceCategory is one of the twelve evidence taxonomy categories.
type EvidenceCategory string

const (
	CategoryDocuments            EvidenceCategory = "documents"
	CategoryImages               EvidenceCategory = "images"
	CategoryAudio                EvidenceCategory = "audio"
	CategoryVideo                EvidenceCategory = "video"
	CategoryStructuredData       EvidenceCategory = "structured_data"
	CategorySaaSExports          EvidenceCategory = "saas_exports"
	CategoryKM4Work              EvidenceCategory = "km4work"
	CategoryBPMProcessModels     EvidenceCategory = "bpm_process_models"
	CategoryRegulatoryPolicy     EvidenceCategory = "regulatory_policy"
	CategoryControlsEvidence     EvidenceCategory = "controls_evidence"
	CategoryDomainCommunications EvidenceCategory = "domain_communications"
	CategoryJobAidsEdgeCases     EvidenceCategory = "job_aids_edge_cases"
)

// AllEvidenceCategories returns the closed category set in declaration order.
func AllEvidenceCategories() []EvidenceCategory {
	return []EvidenceCategory{
		CategoryDocuments,
		CategoryImages,
		CategoryAudio,
		CategoryVideo,
		CategoryStructuredData,
		CategorySaaSExports,
		CategoryKM4Work,
		CategoryBPMProcessModels,
		CategoryRegulatoryPolicy,
		CategoryControlsEvidence,
		CategoryDomainCommunications,
		CategoryJobAidsEdgeCases,
	}
}

// Valid reports whether the category is a member of the closed set.
func (c EvidenceCategory) Valid() bool {
	for _, known := range AllEvidenceCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// EvidenceItem is one evidence source considered by a pipeline run.
// QualityScore is supplied by the evidence intake layer, not computed here.
type EvidenceItem struct {
	ID           string           `json:"id"`
	Category     EvidenceCategory `json:"category"`
	QualityScore float64          `json:"quality_score"`
}
