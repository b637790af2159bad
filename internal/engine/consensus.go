package engine

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/pov-engine/internal/model"
)

// Resolution reasons recorded on contradictions. These are part of the audit
// trail shown to reviewers, so keep them stable.
const (
	reasonWeightedVote    = "highest weighted vote"
	reasonQualityTieBreak = "tie broken by source quality"
	reasonIDTieBreak      = "tie broken by evidence id"
)

// nameField is the implicit field every group votes on: the element's
// display name. Attribute fields come from ExtractedEntity.Attributes.
const nameField = "name"

// fieldVote is one candidate value's standing in a weighted vote.
type fieldVote struct {
	value       string
	weight      float64
	maxQuality  float64
	minEvidence string
	evidenceIDs []string
}

// Resolve computes the consensus view of each triangulated group: a weighted
// vote over every asserted field, with each source's vote weighted by its
// evidence quality score. Every divergence is recorded as a Contradiction,
// resolved or not. Single-source groups take their sole assertion as
// canonical and never produce contradictions.
func (e *Engine) Resolve(groups []Group, evidence []model.EvidenceItem) ([]model.ConsensusElement, []model.Contradiction) {
	quality := make(map[string]float64, len(evidence))
	for _, item := range evidence {
		quality[item.ID] = item.QualityScore
	}

	elements := make([]model.ConsensusElement, 0, len(groups))
	var contradictions []model.Contradiction

	for _, g := range groups {
		elem, found := e.resolveGroup(g, quality)
		elements = append(elements, elem)
		contradictions = append(contradictions, found...)
	}

	zap.L().Info("consensus: resolved elements",
		zap.Int("elements", len(elements)),
		zap.Int("contradictions", len(contradictions)),
	)

	return elements, contradictions
}

func (e *Engine) resolveGroup(g Group, quality map[string]float64) (model.ConsensusElement, []model.Contradiction) {
	entity := g.Element.Entity

	if g.Element.SourceCount <= 1 {
		// No vote to take: the sole asserted value is canonical by
		// construction, and no disagreement is possible.
		return model.ConsensusElement{
			Triangulated:       g.Element,
			WeightedVoteScore:  1.0,
			ResolvedAttributes: copyAttributes(entity.Attributes),
		}, nil
	}

	assertions := collectAssertions(g.Members)

	fields := make([]string, 0, len(assertions))
	for f := range assertions {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	resolved := make(map[string]string)
	var contradictions []model.Contradiction
	var agreementSum float64

	for _, field := range fields {
		byEvidence := assertions[field]
		votes, totalWeight := tallyVotes(byEvidence, quality)
		winner, reason := pickWinner(votes)

		agreement := 1.0
		if totalWeight > 0 {
			agreement = winner.weight / totalWeight
		}
		agreementSum += agreement

		if field == nameField {
			entity.Name = winner.value
		} else {
			resolved[field] = winner.value
		}

		if len(votes) < 2 {
			continue
		}

		// Divergence: record the full audit trail even though it resolved.
		values := make([]model.ContradictionValue, 0, len(byEvidence))
		evidenceIDs := make([]string, 0, len(byEvidence))
		for _, evID := range sortedKeys(byEvidence) {
			values = append(values, model.ContradictionValue{
				EvidenceID:    evID,
				AssertedValue: byEvidence[evID],
				QualityScore:  quality[evID],
			})
			evidenceIDs = append(evidenceIDs, evID)
		}
		contradictions = append(contradictions, model.Contradiction{
			ElementName:      entity.Name,
			FieldName:        field,
			Values:           values,
			ResolutionValue:  winner.value,
			ResolutionReason: reason,
			EvidenceIDs:      evidenceIDs,
		})
	}

	score := 1.0
	if len(fields) > 0 {
		score = clamp01(agreementSum / float64(len(fields)))
	}

	return model.ConsensusElement{
		Triangulated:       withEntity(g.Element, entity),
		WeightedVoteScore:  score,
		ResolvedAttributes: resolved,
	}, contradictions
}

// collectAssertions gathers, per field, the value each evidence item asserts.
// Members are pre-sorted, so when one evidence item mentions the element
// several times the first mention wins deterministically.
func collectAssertions(members []model.ExtractedEntity) map[string]map[string]string {
	assertions := map[string]map[string]string{
		nameField: {},
	}
	for _, m := range members {
		if _, ok := assertions[nameField][m.SourceEvidenceID]; !ok {
			assertions[nameField][m.SourceEvidenceID] = m.Name
		}
		for field, value := range m.Attributes {
			byEvidence, ok := assertions[field]
			if !ok {
				byEvidence = make(map[string]string)
				assertions[field] = byEvidence
			}
			if _, ok := byEvidence[m.SourceEvidenceID]; !ok {
				byEvidence[m.SourceEvidenceID] = value
			}
		}
	}
	return assertions
}

// tallyVotes accumulates weighted votes per distinct value. Vote weight is
// the asserting evidence item's quality score.
func tallyVotes(byEvidence map[string]string, quality map[string]float64) ([]fieldVote, float64) {
	byValue := make(map[string]*fieldVote)
	var totalWeight float64

	for _, evID := range sortedKeys(byEvidence) {
		value := byEvidence[evID]
		w := quality[evID]
		totalWeight += w

		v, ok := byValue[value]
		if !ok {
			v = &fieldVote{value: value, minEvidence: evID}
			byValue[value] = v
		}
		v.weight += w
		if w > v.maxQuality {
			v.maxQuality = w
		}
		if evID < v.minEvidence {
			v.minEvidence = evID
		}
		v.evidenceIDs = append(v.evidenceIDs, evID)
	}

	votes := make([]fieldVote, 0, len(byValue))
	for _, v := range byValue {
		votes = append(votes, *v)
	}
	sort.Slice(votes, func(i, j int) bool { return votes[i].value < votes[j].value })
	return votes, totalWeight
}

// pickWinner selects the canonical value: highest cumulative weight, ties
// broken by highest individual quality score, then by lexicographically
// smallest supporting evidence id. Fully deterministic for identical input.
func pickWinner(votes []fieldVote) (fieldVote, string) {
	winner := votes[0]
	for _, v := range votes[1:] {
		if beats(v, winner) {
			winner = v
		}
	}

	// The reason reflects the deepest tie-break that was actually needed.
	reason := reasonWeightedVote
	for _, v := range votes {
		if v.value == winner.value || v.weight != winner.weight {
			continue
		}
		if v.maxQuality == winner.maxQuality {
			reason = reasonIDTieBreak
			break
		}
		reason = reasonQualityTieBreak
	}
	return winner, reason
}

func beats(a, b fieldVote) bool {
	if a.weight != b.weight {
		return a.weight > b.weight
	}
	if a.maxQuality != b.maxQuality {
		return a.maxQuality > b.maxQuality
	}
	return a.minEvidence < b.minEvidence
}

func withEntity(t model.TriangulatedElement, entity model.ExtractedEntity) model.TriangulatedElement {
	t.Entity = entity
	return t
}

func copyAttributes(attrs map[string]string) map[string]string {
	if len(attrs) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
