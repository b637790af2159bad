package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pov-engine/internal/config"
	"github.com/sells-group/pov-engine/internal/engine"
	"github.com/sells-group/pov-engine/internal/model"
	"github.com/sells-group/pov-engine/internal/store"
	"github.com/sells-group/pov-engine/internal/version"
)

func newTestEnv(t *testing.T) *env {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	eng := engine.New(config.DefaultEngine())
	return &env{
		Store:   st,
		Engine:  eng,
		Manager: version.NewManager(st, eng),
	}
}

func generateRequest(t *testing.T, in engine.Input) *http.Request {
	t.Helper()
	body, err := json.Marshal(in)
	require.NoError(t, err)
	return httptest.NewRequest(http.MethodPost, "/api/v1/pov/generate", bytes.NewReader(body))
}

func sampleGenerateInput() engine.Input {
	return engine.Input{
		EngagementID: "eng-1",
		Scope:        "procure-to-pay",
		Evidence: []model.EvidenceItem{
			{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.9},
		},
		Entities: []model.ExtractedEntity{
			{ID: "ent1", Type: model.EntityActivity, Name: "Approve Invoice",
				Confidence: 0.8, SourceEvidenceID: "ev1"},
		},
	}
}

func TestHandleGenerate_Success(t *testing.T) {
	e := newTestEnv(t)

	rec := httptest.NewRecorder()
	handleGenerate(e)(rec, generateRequest(t, sampleGenerateInput()))

	require.Equal(t, http.StatusCreated, rec.Code)

	var bundle model.ModelBundle
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bundle))
	assert.Equal(t, "eng-1", bundle.Model.EngagementID)
	assert.Equal(t, 1, bundle.Model.Version)
	assert.Len(t, bundle.Elements, 1)
}

func TestHandleGenerate_MalformedBody(t *testing.T) {
	e := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/pov/generate",
		bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	handleGenerate(e)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGenerate_RejectedInput(t *testing.T) {
	e := newTestEnv(t)

	in := sampleGenerateInput()
	in.Evidence[0].Category = "screenshots"

	rec := httptest.NewRecorder()
	handleGenerate(e)(rec, generateRequest(t, in))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown category")
}

func TestHandleGenerate_SaveFailure(t *testing.T) {
	e := newTestEnv(t)

	// A closed store fails the publish transaction, not validation.
	require.NoError(t, e.Store.Close())

	rec := httptest.NewRecorder()
	handleGenerate(e)(rec, generateRequest(t, sampleGenerateInput()))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal error")
}
