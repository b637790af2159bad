package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pov-engine/internal/model"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "pov.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentRuns)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, 0.85, cfg.Engine.Triangulation.FuzzyThreshold)
	assert.Equal(t, 0.25, cfg.Engine.Triangulation.ModeratelyRatio)
	assert.Equal(t, 0.5, cfg.Engine.Triangulation.StronglyRatio)
	assert.Equal(t, 0.75, cfg.Engine.Triangulation.FullyRatio)

	assert.Equal(t, 0.6, cfg.Engine.Confidence.TriangulationWeight)
	assert.Equal(t, 0.4, cfg.Engine.Confidence.VoteWeight)
	assert.Equal(t, 0.90, cfg.Engine.Confidence.VeryHighFloor)
	assert.Equal(t, 0.75, cfg.Engine.Confidence.HighFloor)
	assert.Equal(t, 0.50, cfg.Engine.Confidence.MediumFloor)
	assert.Equal(t, 0.25, cfg.Engine.Confidence.LowFloor)
	assert.Equal(t, 0.75, cfg.Engine.Confidence.BrightFloor)
	assert.Equal(t, 0.40, cfg.Engine.Confidence.DimFloor)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POV_STORE_DRIVER", "postgres")
	t.Setenv("POV_STORE_DATABASE_URL", "postgres://localhost/pov")
	t.Setenv("POV_ENGINE_TRIANGULATION_FUZZY_THRESHOLD", "1.0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/pov", cfg.Store.DatabaseURL)
	assert.Equal(t, 1.0, cfg.Engine.Triangulation.FuzzyThreshold)
}

func TestDefaultEngine_MatchesLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultEngine(), cfg.Engine)
}

func TestGapConfig_IsCritical(t *testing.T) {
	g := DefaultEngine().Gaps

	assert.True(t, g.IsCritical(model.CategoryDocuments))
	assert.True(t, g.IsCritical(model.CategoryStructuredData))
	assert.True(t, g.IsCritical(model.CategoryBPMProcessModels))
	assert.False(t, g.IsCritical(model.CategoryAudio))
	assert.False(t, g.IsCritical(model.CategoryImages))
}
