package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pov-engine/internal/model"
)

func multiSourceGroup(members ...model.ExtractedEntity) Group {
	ids := make([]string, 0, len(members))
	seen := map[string]bool{}
	for _, m := range members {
		if !seen[m.SourceEvidenceID] {
			seen[m.SourceEvidenceID] = true
			ids = append(ids, m.SourceEvidenceID)
		}
	}
	return Group{
		Element: model.TriangulatedElement{
			Entity:             members[0],
			SourceCount:        len(ids),
			TotalSources:       len(ids),
			TriangulationScore: 1.0,
			CorroborationLevel: model.CorroborationFully,
			EvidenceIDs:        ids,
		},
		Members: members,
	}
}

func TestResolve_SingleSourceIsCanonical(t *testing.T) {
	e := newTestEngine()

	entity := model.ExtractedEntity{
		ID: "x1", Type: model.EntityActivity, Name: "Approve Invoice",
		Confidence: 0.8, SourceEvidenceID: "ev1",
		Attributes: map[string]string{"owner": "AP Team"},
	}
	group := Group{
		Element: model.TriangulatedElement{
			Entity: entity, SourceCount: 1, TotalSources: 3,
			TriangulationScore: 1.0 / 3.0,
			CorroborationLevel: model.CorroborationWeakly,
			EvidenceIDs:        []string{"ev1"},
		},
		Members: []model.ExtractedEntity{entity},
	}

	elements, contradictions := e.Resolve([]Group{group}, []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.8},
	})

	require.Len(t, elements, 1)
	assert.Empty(t, contradictions)
	assert.Equal(t, 1.0, elements[0].WeightedVoteScore)
	assert.Equal(t, "AP Team", elements[0].ResolvedAttributes["owner"])
}

func TestResolve_HigherQualitySourceWinsVote(t *testing.T) {
	e := newTestEngine()

	group := multiSourceGroup(
		model.ExtractedEntity{
			ID: "x1", Type: model.EntityActivity, Name: "Vendor Review",
			Confidence: 0.9, SourceEvidenceID: "ev1",
			Attributes: map[string]string{"owning_department": "Procurement"},
		},
		model.ExtractedEntity{
			ID: "x2", Type: model.EntityActivity, Name: "Vendor Review",
			Confidence: 0.7, SourceEvidenceID: "ev2",
			Attributes: map[string]string{"owning_department": "Purchasing"},
		},
	)
	evidence := []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.9},
		{ID: "ev2", Category: model.CategoryDomainCommunications, QualityScore: 0.4},
	}

	elements, contradictions := e.Resolve([]Group{group}, evidence)
	require.Len(t, elements, 1)
	require.Len(t, contradictions, 1)

	// 0.9 vote weight beats 0.4.
	assert.Equal(t, "Procurement", elements[0].ResolvedAttributes["owning_department"])

	c := contradictions[0]
	assert.Equal(t, "Vendor Review", c.ElementName)
	assert.Equal(t, "owning_department", c.FieldName)
	assert.Equal(t, "Procurement", c.ResolutionValue)
	assert.Equal(t, reasonWeightedVote, c.ResolutionReason)
	assert.Equal(t, []string{"ev1", "ev2"}, c.EvidenceIDs)
	require.Len(t, c.Values, 2)
	assert.Equal(t, 0.9, c.Values[0].QualityScore)
	assert.Equal(t, "Procurement", c.Values[0].AssertedValue)
}

func TestResolve_AgreementScoreIsMeanAcrossFields(t *testing.T) {
	e := newTestEngine()

	group := multiSourceGroup(
		model.ExtractedEntity{
			ID: "x1", Type: model.EntityActivity, Name: "Vendor Review",
			Confidence: 0.9, SourceEvidenceID: "ev1",
			Attributes: map[string]string{"owning_department": "Procurement"},
		},
		model.ExtractedEntity{
			ID: "x2", Type: model.EntityActivity, Name: "Vendor Review",
			Confidence: 0.7, SourceEvidenceID: "ev2",
			Attributes: map[string]string{"owning_department": "Purchasing"},
		},
	)
	evidence := []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.9},
		{ID: "ev2", Category: model.CategoryDomainCommunications, QualityScore: 0.4},
	}

	elements, _ := e.Resolve([]Group{group}, evidence)
	require.Len(t, elements, 1)

	// name: unanimous, agreement 1.0
	// owning_department: 0.9 / (0.9+0.4) = 0.6923
	want := (1.0 + 0.9/1.3) / 2.0
	assert.InDelta(t, want, elements[0].WeightedVoteScore, 1e-9)
}

func TestResolve_QualityTieBreak(t *testing.T) {
	e := newTestEngine()

	// "Ops" carries 0.5+0.3=0.8 cumulative, same as "Finance" at 0.8, but
	// Finance's single source has the higher individual quality.
	group := multiSourceGroup(
		model.ExtractedEntity{
			ID: "x1", Type: model.EntityActivity, Name: "Close Books",
			Confidence: 0.9, SourceEvidenceID: "ev1",
			Attributes: map[string]string{"owner": "Ops"},
		},
		model.ExtractedEntity{
			ID: "x2", Type: model.EntityActivity, Name: "Close Books",
			Confidence: 0.9, SourceEvidenceID: "ev2",
			Attributes: map[string]string{"owner": "Ops"},
		},
		model.ExtractedEntity{
			ID: "x3", Type: model.EntityActivity, Name: "Close Books",
			Confidence: 0.9, SourceEvidenceID: "ev3",
			Attributes: map[string]string{"owner": "Finance"},
		},
	)
	evidence := []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.5},
		{ID: "ev2", Category: model.CategoryDocuments, QualityScore: 0.3},
		{ID: "ev3", Category: model.CategoryStructuredData, QualityScore: 0.8},
	}

	elements, contradictions := e.Resolve([]Group{group}, evidence)
	require.Len(t, elements, 1)
	require.Len(t, contradictions, 1)

	assert.Equal(t, "Finance", elements[0].ResolvedAttributes["owner"])
	assert.Equal(t, reasonQualityTieBreak, contradictions[0].ResolutionReason)
}

func TestResolve_EvidenceIDTieBreak(t *testing.T) {
	e := newTestEngine()

	group := multiSourceGroup(
		model.ExtractedEntity{
			ID: "x1", Type: model.EntityActivity, Name: "Close Books",
			Confidence: 0.9, SourceEvidenceID: "ev1",
			Attributes: map[string]string{"owner": "Finance"},
		},
		model.ExtractedEntity{
			ID: "x2", Type: model.EntityActivity, Name: "Close Books",
			Confidence: 0.9, SourceEvidenceID: "ev2",
			Attributes: map[string]string{"owner": "Ops"},
		},
	)
	evidence := []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.5},
		{ID: "ev2", Category: model.CategoryDocuments, QualityScore: 0.5},
	}

	elements, contradictions := e.Resolve([]Group{group}, evidence)
	require.Len(t, contradictions, 1)

	// Identical weight and quality: the value backed by ev1 wins.
	assert.Equal(t, "Finance", elements[0].ResolvedAttributes["owner"])
	assert.Equal(t, reasonIDTieBreak, contradictions[0].ResolutionReason)
}

func TestResolve_NameDivergenceProducesContradiction(t *testing.T) {
	e := newTestEngine()

	group := multiSourceGroup(
		model.ExtractedEntity{
			ID: "x1", Type: model.EntityActivity, Name: "Invoice Approval Process",
			Confidence: 0.9, SourceEvidenceID: "ev1",
		},
		model.ExtractedEntity{
			ID: "x2", Type: model.EntityActivity, Name: "Process Invoice Approval",
			Confidence: 0.7, SourceEvidenceID: "ev2",
		},
	)
	evidence := []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.9},
		{ID: "ev2", Category: model.CategoryDocuments, QualityScore: 0.4},
	}

	elements, contradictions := e.Resolve([]Group{group}, evidence)
	require.Len(t, elements, 1)
	require.Len(t, contradictions, 1)

	assert.Equal(t, "Invoice Approval Process", elements[0].Triangulated.Entity.Name)
	assert.Equal(t, nameField, contradictions[0].FieldName)
}

func TestResolve_SameValueFromAllSourcesNoContradiction(t *testing.T) {
	e := newTestEngine()

	group := multiSourceGroup(
		model.ExtractedEntity{
			ID: "x1", Type: model.EntityActivity, Name: "Post Payment",
			Confidence: 0.9, SourceEvidenceID: "ev1",
			Attributes: map[string]string{"owner": "AP"},
		},
		model.ExtractedEntity{
			ID: "x2", Type: model.EntityActivity, Name: "Post Payment",
			Confidence: 0.7, SourceEvidenceID: "ev2",
			Attributes: map[string]string{"owner": "AP"},
		},
	)
	evidence := []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.9},
		{ID: "ev2", Category: model.CategoryDocuments, QualityScore: 0.4},
	}

	elements, contradictions := e.Resolve([]Group{group}, evidence)
	assert.Empty(t, contradictions)
	assert.Equal(t, 1.0, elements[0].WeightedVoteScore)
	assert.Equal(t, "AP", elements[0].ResolvedAttributes["owner"])
}

func TestResolve_FirstMentionPerEvidenceWins(t *testing.T) {
	e := newTestEngine()

	// ev1 mentions the element twice with different owners; the first
	// mention in member order (sorted by evidence id, then entity id) is
	// ev1's assertion.
	group := multiSourceGroup(
		model.ExtractedEntity{
			ID: "x1", Type: model.EntityActivity, Name: "Post Payment",
			Confidence: 0.9, SourceEvidenceID: "ev1",
			Attributes: map[string]string{"owner": "AP"},
		},
		model.ExtractedEntity{
			ID: "x2", Type: model.EntityActivity, Name: "Post Payment",
			Confidence: 0.8, SourceEvidenceID: "ev1",
			Attributes: map[string]string{"owner": "Treasury"},
		},
		model.ExtractedEntity{
			ID: "x3", Type: model.EntityActivity, Name: "Post Payment",
			Confidence: 0.7, SourceEvidenceID: "ev2",
			Attributes: map[string]string{"owner": "AP"},
		},
	)
	evidence := []model.EvidenceItem{
		{ID: "ev1", Category: model.CategoryDocuments, QualityScore: 0.9},
		{ID: "ev2", Category: model.CategoryDocuments, QualityScore: 0.4},
	}

	elements, contradictions := e.Resolve([]Group{group}, evidence)
	assert.Empty(t, contradictions)
	assert.Equal(t, "AP", elements[0].ResolvedAttributes["owner"])
}
