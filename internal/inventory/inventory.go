// Package inventory loads evidence inventories and extracted entities from
// the file formats engagements actually deliver: YAML documents and XLSX
// workbooks. The engine itself does no I/O; these loaders produce its input.
package inventory

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pov-engine/internal/engine"
)

// Load reads an input file, dispatching on extension. Supported: .yaml,
// .yml, .xlsx.
func Load(path string) (engine.Input, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return engine.Input{}, eris.Errorf("inventory: unsupported input format %q", filepath.Ext(path))
	}
}
