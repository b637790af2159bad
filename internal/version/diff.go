package version

import (
	"sort"

	"github.com/sells-group/pov-engine/internal/model"
)

// diffFields are the element fields compared when deciding whether a
// surviving element was modified between versions.
var diffFields = []string{"element_type", "confidence_level", "corroboration_level", "evidence_count"}

// computeDiff matches elements across two versions by name. Identity across
// versions is the element name, not the element ID: every generation mints
// fresh IDs, so IDs never match between versions.
func computeDiff(v1ID, v2ID string, prior, current []model.ProcessElement) *model.VersionDiff {
	priorByName := elementsByName(prior)
	currentByName := elementsByName(current)

	diff := &model.VersionDiff{
		V1ID:     v1ID,
		V2ID:     v2ID,
		Added:    []model.ElementChange{},
		Removed:  []model.ElementChange{},
		Modified: []model.ElementChange{},
	}

	for _, name := range sortedNames(currentByName) {
		cur := currentByName[name]
		old, ok := priorByName[name]
		if !ok {
			diff.Added = append(diff.Added, newChange(cur, model.ChangeAdded, nil, nil, fieldValues(cur)))
			continue
		}
		changed := changedFields(old, cur)
		if len(changed) == 0 {
			diff.UnchangedCount++
			continue
		}
		diff.Modified = append(diff.Modified, newChange(cur, model.ChangeModified, changed, fieldValues(old), fieldValues(cur)))
	}

	for _, name := range sortedNames(priorByName) {
		if _, ok := currentByName[name]; ok {
			continue
		}
		old := priorByName[name]
		diff.Removed = append(diff.Removed, newChange(old, model.ChangeRemoved, nil, fieldValues(old), nil))
	}

	return diff
}

func newChange(el model.ProcessElement, ct model.ChangeType, changed []string, prior, current map[string]any) model.ElementChange {
	return model.ElementChange{
		ElementID:     el.ID,
		ElementName:   el.Name,
		ChangeType:    ct,
		ChangedFields: changed,
		Color:         model.DiffColors[ct],
		CSSClass:      model.DiffCSSClasses[ct],
		PriorValues:   prior,
		CurrentValues: current,
	}
}

func changedFields(old, cur model.ProcessElement) []string {
	var changed []string
	oldVals, curVals := fieldValues(old), fieldValues(cur)
	for _, field := range diffFields {
		if oldVals[field] != curVals[field] {
			changed = append(changed, field)
		}
	}
	return changed
}

func fieldValues(el model.ProcessElement) map[string]any {
	return map[string]any{
		"element_type":        string(el.Type),
		"confidence_level":    string(el.ConfidenceLevel),
		"corroboration_level": string(el.CorroborationLevel),
		"evidence_count":      el.EvidenceCount,
	}
}

// elementsByName keys elements by name. A name appearing twice within one
// version keeps the higher-confidence element; the triangulator merges
// duplicates upstream, so this is a tie-break, not an expected path.
func elementsByName(elements []model.ProcessElement) map[string]model.ProcessElement {
	byName := make(map[string]model.ProcessElement, len(elements))
	for _, el := range elements {
		if existing, ok := byName[el.Name]; ok && existing.ConfidenceScore >= el.ConfidenceScore {
			continue
		}
		byName[el.Name] = el
	}
	return byName
}

func sortedNames(m map[string]model.ProcessElement) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
