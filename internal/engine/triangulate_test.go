package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pov-engine/internal/config"
	"github.com/sells-group/pov-engine/internal/model"
)

func newTestEngine() *Engine {
	return New(config.DefaultEngine())
}

func evidenceSet(n int) []model.EvidenceItem {
	items := make([]model.EvidenceItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, model.EvidenceItem{
			ID:           string(rune('a'+i)) + "-ev",
			Category:     model.CategoryDocuments,
			QualityScore: 0.8,
		})
	}
	return items
}

func TestTriangulate_EmptyInput(t *testing.T) {
	e := newTestEngine()

	assert.Nil(t, e.Triangulate(nil, evidenceSet(2)))
	assert.Nil(t, e.Triangulate([]model.ExtractedEntity{
		{ID: "x1", Type: model.EntityActivity, Name: "Approve Invoice", SourceEvidenceID: "a-ev"},
	}, nil))
}

func TestTriangulate_GroupsByNormalizedName(t *testing.T) {
	e := newTestEngine()
	evidence := evidenceSet(2)

	entities := []model.ExtractedEntity{
		{ID: "x1", Type: model.EntityActivity, Name: "Approve Invoice", Confidence: 0.8, SourceEvidenceID: "a-ev"},
		{ID: "x2", Type: model.EntityActivity, Name: "approve-invoice", Confidence: 0.6, SourceEvidenceID: "b-ev"},
	}

	groups := e.Triangulate(entities, evidence)
	require.Len(t, groups, 1)

	el := groups[0].Element
	assert.Equal(t, 2, el.SourceCount)
	assert.Equal(t, 2, el.TotalSources)
	assert.Equal(t, 1.0, el.TriangulationScore)
	assert.Equal(t, []string{"a-ev", "b-ev"}, el.EvidenceIDs)
	// 2/2 coverage clears the fully threshold.
	assert.Equal(t, model.CorroborationFully, el.CorroborationLevel)
}

func TestTriangulate_SameEvidenceCountedOnce(t *testing.T) {
	e := newTestEngine()
	evidence := evidenceSet(3)

	entities := []model.ExtractedEntity{
		{ID: "x1", Type: model.EntityRole, Name: "AP Clerk", Confidence: 0.9, SourceEvidenceID: "a-ev"},
		{ID: "x2", Type: model.EntityRole, Name: "AP Clerk", Confidence: 0.7, SourceEvidenceID: "a-ev"},
	}

	groups := e.Triangulate(entities, evidence)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, groups[0].Element.SourceCount)
	assert.Equal(t, model.CorroborationWeakly, groups[0].Element.CorroborationLevel)
	assert.InDelta(t, 1.0/3.0, groups[0].Element.TriangulationScore, 1e-9)
}

func TestTriangulate_DifferentTypesNeverMerge(t *testing.T) {
	e := newTestEngine()
	evidence := evidenceSet(2)

	entities := []model.ExtractedEntity{
		{ID: "x1", Type: model.EntityActivity, Name: "Invoice Approval", Confidence: 0.8, SourceEvidenceID: "a-ev"},
		{ID: "x2", Type: model.EntityDocument, Name: "Invoice Approval", Confidence: 0.8, SourceEvidenceID: "b-ev"},
	}

	groups := e.Triangulate(entities, evidence)
	assert.Len(t, groups, 2)
}

func TestTriangulate_FuzzyMergesReorderedTokens(t *testing.T) {
	e := newTestEngine()
	evidence := evidenceSet(2)

	entities := []model.ExtractedEntity{
		{ID: "x1", Type: model.EntityActivity, Name: "Invoice Approval Process", Confidence: 0.8, SourceEvidenceID: "a-ev"},
		{ID: "x2", Type: model.EntityActivity, Name: "Process Invoice Approval", Confidence: 0.6, SourceEvidenceID: "b-ev"},
	}

	groups := e.Triangulate(entities, evidence)
	require.Len(t, groups, 1)
	assert.Equal(t, 2, groups[0].Element.SourceCount)
}

func TestTriangulate_FuzzyKeepsDistinctNames(t *testing.T) {
	e := newTestEngine()
	evidence := evidenceSet(2)

	entities := []model.ExtractedEntity{
		{ID: "x1", Type: model.EntityActivity, Name: "Invoice Approval", Confidence: 0.8, SourceEvidenceID: "a-ev"},
		{ID: "x2", Type: model.EntityActivity, Name: "Invoice Rejection", Confidence: 0.6, SourceEvidenceID: "b-ev"},
	}

	// Jaccard = 1/3, well under the 0.85 threshold.
	groups := e.Triangulate(entities, evidence)
	assert.Len(t, groups, 2)
}

func TestTriangulate_ExactMatchOnlyWhenThresholdIsOne(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.Triangulation.FuzzyThreshold = 1.0
	e := New(cfg)
	evidence := evidenceSet(2)

	entities := []model.ExtractedEntity{
		{ID: "x1", Type: model.EntityActivity, Name: "Invoice Approval Process", Confidence: 0.8, SourceEvidenceID: "a-ev"},
		{ID: "x2", Type: model.EntityActivity, Name: "Process Invoice Approval", Confidence: 0.6, SourceEvidenceID: "b-ev"},
	}

	groups := e.Triangulate(entities, evidence)
	assert.Len(t, groups, 2)
}

func TestTriangulate_RepresentativeHighestConfidence(t *testing.T) {
	e := newTestEngine()
	evidence := evidenceSet(2)

	entities := []model.ExtractedEntity{
		{ID: "x2", Type: model.EntitySystem, Name: "SAP ECC", Confidence: 0.5, SourceEvidenceID: "a-ev"},
		{ID: "x1", Type: model.EntitySystem, Name: "SAP ECC", Confidence: 0.9, SourceEvidenceID: "b-ev"},
	}

	groups := e.Triangulate(entities, evidence)
	require.Len(t, groups, 1)
	assert.Equal(t, "x1", groups[0].Element.Entity.ID)
}

func TestTriangulate_RepresentativeTieBrokenBySmallestID(t *testing.T) {
	e := newTestEngine()
	evidence := evidenceSet(2)

	entities := []model.ExtractedEntity{
		{ID: "x2", Type: model.EntitySystem, Name: "SAP ECC", Confidence: 0.9, SourceEvidenceID: "a-ev"},
		{ID: "x1", Type: model.EntitySystem, Name: "SAP ECC", Confidence: 0.9, SourceEvidenceID: "b-ev"},
	}

	groups := e.Triangulate(entities, evidence)
	require.Len(t, groups, 1)
	assert.Equal(t, "x1", groups[0].Element.Entity.ID)
}

func TestCorroborationFor_Levels(t *testing.T) {
	e := newTestEngine()

	assert.Equal(t, model.CorroborationNone, e.corroborationFor(0, 4))
	// A single source is weakly corroborated regardless of ratio.
	assert.Equal(t, model.CorroborationWeakly, e.corroborationFor(1, 1))
	assert.Equal(t, model.CorroborationWeakly, e.corroborationFor(2, 10))
	assert.Equal(t, model.CorroborationModerately, e.corroborationFor(2, 8))
	assert.Equal(t, model.CorroborationStrongly, e.corroborationFor(2, 4))
	assert.Equal(t, model.CorroborationFully, e.corroborationFor(3, 4))
	assert.Equal(t, model.CorroborationFully, e.corroborationFor(4, 4))
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "approve invoice", normalizeName("  Approve   Invoice "))
	assert.Equal(t, "approve invoice", normalizeName("Approve-Invoice"))
	assert.Equal(t, "approve invoice", normalizeName("APPROVE_INVOICE"))
	assert.Equal(t, "approve invoice 2", normalizeName("Approve Invoice (2)"))
	assert.Equal(t, "", normalizeName("!!!"))
}

func TestTokenSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, tokenSimilarity("approve invoice", "approve invoice"))
	assert.Equal(t, 1.0, tokenSimilarity("approve invoice", "invoice approve"))
	assert.InDelta(t, 1.0/3.0, tokenSimilarity("approve invoice", "reject invoice"), 1e-9)
	assert.Equal(t, 0.0, tokenSimilarity("", "approve"))
}
