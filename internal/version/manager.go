package version

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pov-engine/internal/engine"
	"github.com/sells-group/pov-engine/internal/model"
	"github.com/sells-group/pov-engine/internal/store"
)

// Manager assigns version numbers and publishes immutable model versions.
// Versions within an (engagement, scope) pair form a linear history starting
// at 1; existing versions are never mutated.
type Manager struct {
	store  store.Store
	engine *engine.Engine
}

// NewManager creates a Manager backed by the given store and engine.
func NewManager(st store.Store, eng *engine.Engine) *Manager {
	return &Manager{store: st, engine: eng}
}

// Generate runs the pipeline on the input and publishes the result as the
// next version for its engagement/scope. The bundle is written in a single
// transaction, so a failed save publishes nothing.
func (m *Manager) Generate(ctx context.Context, in engine.Input) (*model.ModelBundle, error) {
	bundle, err := m.engine.Run(in)
	if err != nil {
		return nil, err
	}
	return m.publish(ctx, bundle)
}

// Republish re-runs the pipeline on a fresh input for the scope of a prior
// model and publishes the result as a new version. The prior model must
// exist; store.ErrNotFound surfaces unchanged so callers can distinguish a
// missing version from a failed run.
func (m *Manager) Republish(ctx context.Context, priorModelID string, in engine.Input) (*model.ModelBundle, error) {
	prior, err := m.store.GetModel(ctx, priorModelID)
	if err != nil {
		return nil, err
	}

	in.EngagementID = prior.EngagementID
	in.Scope = prior.Scope

	bundle, err := m.engine.Run(in)
	if err != nil {
		return nil, err
	}
	bundle.Model.Version = prior.Version + 1

	latest, err := m.store.LatestVersion(ctx, prior.EngagementID, prior.Scope)
	if err != nil {
		return nil, err
	}
	if latest >= bundle.Model.Version {
		bundle.Model.Version = latest + 1
	}

	if err := m.store.SaveModel(ctx, bundle); err != nil {
		return nil, eris.Wrapf(err, "version: save republished model %s", bundle.Model.ID)
	}

	zap.L().Info("version: republished model",
		zap.String("prior_model_id", priorModelID),
		zap.String("model_id", bundle.Model.ID),
		zap.Int("version", bundle.Model.Version),
	)
	return bundle, nil
}

// Diff loads both versions and computes the element-level diff between them.
// Direction matters: v1 is the prior version, v2 the current.
func (m *Manager) Diff(ctx context.Context, v1ID, v2ID string) (*model.VersionDiff, error) {
	var v1Elements, v2Elements []model.ProcessElement

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := m.store.GetModel(gctx, v1ID); err != nil {
			return err
		}
		var err error
		v1Elements, err = m.store.GetElements(gctx, v1ID)
		return err
	})
	g.Go(func() error {
		if _, err := m.store.GetModel(gctx, v2ID); err != nil {
			return err
		}
		var err error
		v2Elements, err = m.store.GetElements(gctx, v2ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	diff := computeDiff(v1ID, v2ID, v1Elements, v2Elements)
	zap.L().Debug("version: computed diff",
		zap.String("v1", v1ID),
		zap.String("v2", v2ID),
		zap.Int("added", len(diff.Added)),
		zap.Int("removed", len(diff.Removed)),
		zap.Int("modified", len(diff.Modified)),
		zap.Int("unchanged", diff.UnchangedCount),
	)
	return diff, nil
}

// List returns all model versions for an engagement, optionally narrowed to
// one scope.
func (m *Manager) List(ctx context.Context, engagementID, scope string) ([]model.ProcessModel, error) {
	return m.store.ListModels(ctx, engagementID, scope)
}

func (m *Manager) publish(ctx context.Context, bundle *model.ModelBundle) (*model.ModelBundle, error) {
	latest, err := m.store.LatestVersion(ctx, bundle.Model.EngagementID, bundle.Model.Scope)
	if err != nil {
		return nil, eris.Wrap(err, "version: resolve latest version")
	}
	bundle.Model.Version = latest + 1

	if err := m.store.SaveModel(ctx, bundle); err != nil {
		return nil, eris.Wrapf(err, "version: save model %s", bundle.Model.ID)
	}

	zap.L().Info("version: published model",
		zap.String("model_id", bundle.Model.ID),
		zap.String("engagement", bundle.Model.EngagementID),
		zap.String("scope", bundle.Model.Scope),
		zap.Int("version", bundle.Model.Version),
	)
	return bundle, nil
}
