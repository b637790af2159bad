package inventory

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/pov-engine/internal/engine"
	"github.com/sells-group/pov-engine/internal/model"
)

// yamlDocument is the on-disk shape of a YAML input file.
type yamlDocument struct {
	EngagementID string         `yaml:"engagement_id"`
	Scope        string         `yaml:"scope"`
	Evidence     []yamlEvidence `yaml:"evidence"`
	Entities     []yamlEntity   `yaml:"entities"`
}

type yamlEvidence struct {
	ID       string  `yaml:"id"`
	Category string  `yaml:"category"`
	Quality  float64 `yaml:"quality"`
}

type yamlEntity struct {
	ID         string            `yaml:"id"`
	Type       string            `yaml:"type"`
	Name       string            `yaml:"name"`
	Confidence float64           `yaml:"confidence"`
	EvidenceID string            `yaml:"evidence_id"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// LoadYAML parses a YAML input document. Enum values are checked here so a
// typo fails at load time with the file context, not later inside the
// pipeline.
func LoadYAML(path string) (engine.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Input{}, eris.Wrapf(err, "inventory: read %s", path)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return engine.Input{}, eris.Wrapf(err, "inventory: parse %s", path)
	}

	in := engine.Input{
		EngagementID: doc.EngagementID,
		Scope:        doc.Scope,
		Entities:     make([]model.ExtractedEntity, 0, len(doc.Entities)),
		Evidence:     make([]model.EvidenceItem, 0, len(doc.Evidence)),
	}

	for i, ev := range doc.Evidence {
		category := model.EvidenceCategory(ev.Category)
		if !category.Valid() {
			return engine.Input{}, eris.Errorf("inventory: %s: evidence[%d] has unknown category %q", path, i, ev.Category)
		}
		in.Evidence = append(in.Evidence, model.EvidenceItem{
			ID:           ev.ID,
			Category:     category,
			QualityScore: ev.Quality,
		})
	}

	for i, ent := range doc.Entities {
		entityType := model.EntityType(ent.Type)
		if !entityType.Valid() {
			return engine.Input{}, eris.Errorf("inventory: %s: entities[%d] has unknown type %q", path, i, ent.Type)
		}
		in.Entities = append(in.Entities, model.ExtractedEntity{
			ID:               ent.ID,
			Type:             entityType,
			Name:             ent.Name,
			Confidence:       ent.Confidence,
			SourceEvidenceID: ent.EvidenceID,
			Attributes:       ent.Attributes,
		})
	}

	return in, nil
}
