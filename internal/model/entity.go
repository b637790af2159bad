package model

// EntityType classifies an extracted process entity.
type EntityType string

const (
	EntityActivity EntityType = "activity"
	EntityGateway  EntityType = "gateway"
	EntityEvent    EntityType = "event"
	EntityRole     EntityType = "role"
	EntitySystem   EntityType = "system"
	EntityDocument EntityType = "document"
)

// Valid reports whether the entity type is a member of the closed set.
func (t EntityType) Valid() bool {
	switch t {
	case EntityActivity, EntityGateway, EntityEvent, EntityRole, EntitySystem, EntityDocument:
		return true
	}
	return false
}

// ExtractedEntity is one candidate entity produced by the extraction adapter
// for a single (evidence item x mention). Attributes carry per-source field
// assertions (e.g. "owning_department") that consensus votes over.
type ExtractedEntity struct {
	ID               string            `json:"id"`
	Type             EntityType        `json:"type"`
	Name             string            `json:"name"`
	Confidence       float64           `json:"confidence"`
	SourceEvidenceID string            `json:"source_evidence_id"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}
