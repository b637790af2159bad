package model

import "time"

// GeneratedBy identifies the consensus algorithm as the producer of every
// model version created by the engine.
const GeneratedBy = "consensus_algorithm"

// ProcessModelStatus is the lifecycle state of a model version.
type ProcessModelStatus string

const (
	StatusGenerating ProcessModelStatus = "generating"
	StatusCompleted  ProcessModelStatus = "completed"
	StatusFailed     ProcessModelStatus = "failed"
)

// ProcessModel is one immutable versioned snapshot of the consensus view of
// a process. Republishing creates a new version; existing versions are never
// edited.
type ProcessModel struct {
	ID                 string             `json:"id"`
	EngagementID       string             `json:"engagement_id"`
	Scope              string             `json:"scope"`
	Version            int                `json:"version"`
	Status             ProcessModelStatus `json:"status"`
	ConfidenceScore    float64            `json:"confidence_score"`
	ElementCount       int                `json:"element_count"`
	EvidenceCount      int                `json:"evidence_count"`
	ContradictionCount int                `json:"contradiction_count"`
	GeneratedBy        string             `json:"generated_by"`
	GeneratedAt        time.Time          `json:"generated_at"`
}

// ModelBundle is the complete output of one pipeline run: the model plus the
// element, contradiction, and gap generations it owns. A bundle is persisted
// in a single transaction so a version is never published partially.
type ModelBundle struct {
	Model          ProcessModel     `json:"model"`
	Elements       []ProcessElement `json:"elements"`
	Contradictions []Contradiction  `json:"contradictions"`
	Gaps           []EvidenceGap    `json:"gaps"`
}
