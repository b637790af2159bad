package engine

import (
	"github.com/rotisserie/eris"
)

// ErrInvalidInput is the root of every input contract violation. Callers
// check it with errors.Is to tell a rejected input from a failed run.
var ErrInvalidInput = eris.New("engine: invalid input")

// validateInput enforces the engine's input contract. Violations fail the
// whole run: downstream confidence math assumes validated bounds, so nothing
// is clamped or silently dropped. Absence of input (zero evidence, zero
// entities) is valid and is not checked here.
func validateInput(in Input) error {
	if in.EngagementID == "" {
		return eris.Wrap(ErrInvalidInput, "engagement id is required")
	}
	if in.Scope == "" {
		return eris.Wrap(ErrInvalidInput, "scope is required")
	}

	seen := make(map[string]bool, len(in.Evidence))
	for i, item := range in.Evidence {
		if item.ID == "" {
			return eris.Wrapf(ErrInvalidInput, "evidence[%d] has empty id", i)
		}
		if seen[item.ID] {
			return eris.Wrapf(ErrInvalidInput, "duplicate evidence id %q", item.ID)
		}
		seen[item.ID] = true
		if !item.Category.Valid() {
			return eris.Wrapf(ErrInvalidInput, "evidence %q has unknown category %q", item.ID, item.Category)
		}
		if item.QualityScore < 0 || item.QualityScore > 1 {
			return eris.Wrapf(ErrInvalidInput, "evidence %q quality score %.4f outside [0,1]", item.ID, item.QualityScore)
		}
	}

	for i, ent := range in.Entities {
		if ent.ID == "" {
			return eris.Wrapf(ErrInvalidInput, "entity[%d] has empty id", i)
		}
		if ent.Name == "" {
			return eris.Wrapf(ErrInvalidInput, "entity %q has empty name", ent.ID)
		}
		if !ent.Type.Valid() {
			return eris.Wrapf(ErrInvalidInput, "entity %q has unknown type %q", ent.ID, ent.Type)
		}
		if ent.Confidence < 0 || ent.Confidence > 1 {
			return eris.Wrapf(ErrInvalidInput, "entity %q confidence %.4f outside [0,1]", ent.ID, ent.Confidence)
		}
		if !seen[ent.SourceEvidenceID] {
			return eris.Wrapf(ErrInvalidInput, "entity %q references unknown evidence id %q", ent.ID, ent.SourceEvidenceID)
		}
	}

	return nil
}
