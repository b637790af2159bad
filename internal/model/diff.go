package model

// ChangeType classifies one element's change between two model versions.
type ChangeType string

const (
	ChangeAdded     ChangeType = "added"
	ChangeRemoved   ChangeType = "removed"
	ChangeModified  ChangeType = "modified"
	ChangeUnchanged ChangeType = "unchanged"
)

// DiffColors and DiffCSSClasses are a fixed presentation contract consumed
// by the BPMN rendering layer. Values must be emitted verbatim.
var DiffColors = map[ChangeType]string{
	ChangeAdded:     "#28a745",
	ChangeRemoved:   "#dc3545",
	ChangeModified:  "#ffc107",
	ChangeUnchanged: "none",
}

var DiffCSSClasses = map[ChangeType]string{
	ChangeAdded:     "diff-added",
	ChangeRemoved:   "diff-removed",
	ChangeModified:  "diff-modified",
	ChangeUnchanged: "unchanged",
}

// ElementChange is a single entry in a version diff.
type ElementChange struct {
	ElementID     string         `json:"element_id"`
	ElementName   string         `json:"element_name"`
	ChangeType    ChangeType     `json:"change_type"`
	ChangedFields []string       `json:"changed_fields,omitempty"`
	Color         string         `json:"color"`
	CSSClass      string         `json:"css_class"`
	PriorValues   map[string]any `json:"prior_values,omitempty"`
	CurrentValues map[string]any `json:"current_values,omitempty"`
}

// VersionDiff is the structured diff between two model versions.
type VersionDiff struct {
	V1ID           string          `json:"v1_id"`
	V2ID           string          `json:"v2_id"`
	Added          []ElementChange `json:"added"`
	Removed        []ElementChange `json:"removed"`
	Modified       []ElementChange `json:"modified"`
	UnchangedCount int             `json:"unchanged_count"`
}

// TotalChanges is the number of added, removed, and modified entries.
func (d *VersionDiff) TotalChanges() int {
	return len(d.Added) + len(d.Removed) + len(d.Modified)
}
