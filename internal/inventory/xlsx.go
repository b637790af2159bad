package inventory

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/pov-engine/internal/engine"
	"github.com/sells-group/pov-engine/internal/model"
)

const (
	evidenceSheet = "Evidence"
	entitySheet   = "Entities"

	// Entity attribute columns carry an attr: prefix in the header row,
	// e.g. "attr:owner" becomes attributes["owner"].
	attrPrefix = "attr:"
)

// LoadXLSX parses an XLSX workbook with an Evidence sheet (id, category,
// quality) and an Entities sheet (id, type, name, confidence, evidence_id,
// attr:* columns). Engagement and scope are not part of the workbook; the
// caller supplies them via flags.
func LoadXLSX(path string) (engine.Input, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return engine.Input{}, eris.Wrapf(err, "inventory: open %s", path)
	}

	var in engine.Input

	in.Evidence, err = readEvidenceSheet(f, path)
	if err != nil {
		return engine.Input{}, err
	}
	in.Entities, err = readEntitySheet(f, path)
	if err != nil {
		return engine.Input{}, err
	}

	return in, nil
}

func readEvidenceSheet(f *xlsx.File, path string) ([]model.EvidenceItem, error) {
	sheet, ok := f.Sheet[evidenceSheet]
	if !ok {
		return nil, eris.Errorf("inventory: %s: sheet %q not found", path, evidenceSheet)
	}

	var items []model.EvidenceItem
	for i, row := range sheet.Rows {
		if i == 0 {
			continue // header
		}
		cells := rowToStrings(row)
		if isBlankRow(cells) {
			continue
		}
		if len(cells) < 3 {
			return nil, eris.Errorf("inventory: %s: %s row %d has %d columns, want 3", path, evidenceSheet, i+1, len(cells))
		}

		category := model.EvidenceCategory(strings.TrimSpace(cells[1]))
		if !category.Valid() {
			return nil, eris.Errorf("inventory: %s: %s row %d has unknown category %q", path, evidenceSheet, i+1, cells[1])
		}
		quality, err := strconv.ParseFloat(strings.TrimSpace(cells[2]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "inventory: %s: %s row %d quality", path, evidenceSheet, i+1)
		}

		items = append(items, model.EvidenceItem{
			ID:           strings.TrimSpace(cells[0]),
			Category:     category,
			QualityScore: quality,
		})
	}
	return items, nil
}

func readEntitySheet(f *xlsx.File, path string) ([]model.ExtractedEntity, error) {
	sheet, ok := f.Sheet[entitySheet]
	if !ok {
		return nil, eris.Errorf("inventory: %s: sheet %q not found", path, entitySheet)
	}
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := rowToStrings(sheet.Rows[0])

	var entities []model.ExtractedEntity
	for i, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		if isBlankRow(cells) {
			continue
		}
		if len(cells) < 5 {
			return nil, eris.Errorf("inventory: %s: %s row %d has %d columns, want at least 5", path, entitySheet, i+2, len(cells))
		}

		entityType := model.EntityType(strings.TrimSpace(cells[1]))
		if !entityType.Valid() {
			return nil, eris.Errorf("inventory: %s: %s row %d has unknown type %q", path, entitySheet, i+2, cells[1])
		}
		confidence, err := strconv.ParseFloat(strings.TrimSpace(cells[3]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "inventory: %s: %s row %d confidence", path, entitySheet, i+2)
		}

		entity := model.ExtractedEntity{
			ID:               strings.TrimSpace(cells[0]),
			Type:             entityType,
			Name:             strings.TrimSpace(cells[2]),
			Confidence:       confidence,
			SourceEvidenceID: strings.TrimSpace(cells[4]),
		}

		for col := 5; col < len(cells) && col < len(header); col++ {
			name, ok := strings.CutPrefix(strings.TrimSpace(header[col]), attrPrefix)
			if !ok || name == "" {
				continue
			}
			value := strings.TrimSpace(cells[col])
			if value == "" {
				continue
			}
			if entity.Attributes == nil {
				entity.Attributes = make(map[string]string)
			}
			entity.Attributes[name] = value
		}

		entities = append(entities, entity)
	}
	return entities, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isBlankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
