package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pov-engine/internal/model"
)

// ErrNotFound is returned when a model version does not exist. Callers check
// it with errors.Is; the engine never retries on it.
var ErrNotFound = eris.New("store: model version not found")

// Store persists immutable model versions. SaveModel writes a bundle in a
// single transaction: a version is published with all of its elements,
// contradictions, and gaps, or not at all.
type Store interface {
	SaveModel(ctx context.Context, bundle *model.ModelBundle) error
	GetModel(ctx context.Context, modelID string) (*model.ProcessModel, error)
	GetElements(ctx context.Context, modelID string) ([]model.ProcessElement, error)
	GetContradictions(ctx context.Context, modelID string) ([]model.Contradiction, error)
	GetGaps(ctx context.Context, modelID string) ([]model.EvidenceGap, error)
	ListModels(ctx context.Context, engagementID, scope string) ([]model.ProcessModel, error)
	LatestVersion(ctx context.Context, engagementID, scope string) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
