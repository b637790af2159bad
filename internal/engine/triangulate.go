package engine

import (
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/pov-engine/internal/model"
)

// Group pairs a triangulated element with the raw mentions behind it. The
// consensus resolver needs the mentions to vote over per-source attribute
// assertions; only the Element half is ever persisted.
type Group struct {
	Element model.TriangulatedElement
	Members []model.ExtractedEntity
}

// Triangulate groups candidate entities that denote the same real-world
// element and scores each group by source coverage. Zero entities or zero
// evidence is a normal terminal state and returns an empty list.
//
// Grouping key is entity type plus normalized name; groups of the same type
// whose names clear the configured fuzzy threshold are merged. SourceCount
// counts distinct evidence items, so repeated mentions within one evidence
// item count once.
func (e *Engine) Triangulate(entities []model.ExtractedEntity, evidence []model.EvidenceItem) []Group {
	totalSources := len(evidence)
	if len(entities) == 0 || totalSources == 0 {
		return nil
	}

	groups := make(map[string][]model.ExtractedEntity)
	for _, ent := range entities {
		key := string(ent.Type) + "|" + normalizeName(ent.Name)
		groups[key] = append(groups[key], ent)
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if e.cfg.Triangulation.FuzzyThreshold < 1.0 {
		keys = e.mergeFuzzy(keys, groups)
	}

	results := make([]Group, 0, len(keys))
	for _, key := range keys {
		members := groups[key]
		sort.Slice(members, func(i, j int) bool {
			if members[i].SourceEvidenceID != members[j].SourceEvidenceID {
				return members[i].SourceEvidenceID < members[j].SourceEvidenceID
			}
			return members[i].ID < members[j].ID
		})

		evidenceIDs := distinctEvidenceIDs(members)
		sourceCount := len(evidenceIDs)
		score := clamp01(float64(sourceCount) / float64(maxInt(totalSources, 1)))

		results = append(results, Group{
			Element: model.TriangulatedElement{
				Entity:             representative(members),
				SourceCount:        sourceCount,
				TotalSources:       totalSources,
				TriangulationScore: score,
				CorroborationLevel: e.corroborationFor(sourceCount, totalSources),
				EvidenceIDs:        evidenceIDs,
			},
			Members: members,
		})
	}

	levelCounts := make(map[model.CorroborationLevel]int)
	for _, g := range results {
		levelCounts[g.Element.CorroborationLevel]++
	}
	zap.L().Info("triangulate: grouped entities",
		zap.Int("entities", len(entities)),
		zap.Int("elements", len(results)),
		zap.Int("total_sources", totalSources),
		zap.Int("fully", levelCounts[model.CorroborationFully]),
		zap.Int("strongly", levelCounts[model.CorroborationStrongly]),
		zap.Int("moderately", levelCounts[model.CorroborationModerately]),
		zap.Int("weakly", levelCounts[model.CorroborationWeakly]),
	)

	return results
}

// mergeFuzzy folds groups whose normalized names are near-duplicates into
// the lexicographically first matching group of the same entity type.
// Deterministic: keys are visited in sorted order.
func (e *Engine) mergeFuzzy(keys []string, groups map[string][]model.ExtractedEntity) []string {
	threshold := e.cfg.Triangulation.FuzzyThreshold
	var kept []string
	for _, key := range keys {
		merged := false
		for _, canon := range kept {
			if keyType(canon) != keyType(key) {
				continue
			}
			if tokenSimilarity(keyName(canon), keyName(key)) >= threshold {
				groups[canon] = append(groups[canon], groups[key]...)
				delete(groups, key)
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, key)
		}
	}
	return kept
}

// corroborationFor derives the ordinal corroboration level from source
// counts. Zero sources is none and a single source is always weakly;
// multi-source elements escalate through the configured coverage ratios.
func (e *Engine) corroborationFor(sourceCount, totalSources int) model.CorroborationLevel {
	if sourceCount == 0 {
		return model.CorroborationNone
	}
	if sourceCount == 1 {
		return model.CorroborationWeakly
	}

	ratio := float64(sourceCount) / float64(maxInt(totalSources, 1))
	t := e.cfg.Triangulation
	switch {
	case ratio >= t.FullyRatio:
		return model.CorroborationFully
	case ratio >= t.StronglyRatio:
		return model.CorroborationStrongly
	case ratio >= t.ModeratelyRatio:
		return model.CorroborationModerately
	default:
		return model.CorroborationWeakly
	}
}

// representative picks the canonical entity for a group: highest extraction
// confidence, ties broken by smallest entity id.
func representative(members []model.ExtractedEntity) model.ExtractedEntity {
	best := members[0]
	for _, m := range members[1:] {
		if m.Confidence > best.Confidence || (m.Confidence == best.Confidence && m.ID < best.ID) {
			best = m
		}
	}
	return best
}

func distinctEvidenceIDs(members []model.ExtractedEntity) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range members {
		if !seen[m.SourceEvidenceID] {
			seen[m.SourceEvidenceID] = true
			ids = append(ids, m.SourceEvidenceID)
		}
	}
	sort.Strings(ids)
	return ids
}

var nameFolder = cases.Fold()

// normalizeName canonicalizes an entity name for grouping: NFKC
// normalization, case folding, punctuation stripped, whitespace collapsed.
func normalizeName(name string) string {
	folded := nameFolder.String(norm.NFKC.String(name))
	var b strings.Builder
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenSimilarity is the Jaccard similarity of the token sets of two
// normalized names.
func tokenSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}
	var inter, union int
	for tok := range ta {
		if tb[tok] {
			inter++
		}
	}
	union = len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func keyType(key string) string {
	i := strings.IndexByte(key, '|')
	return key[:i]
}

func keyName(key string) string {
	i := strings.IndexByte(key, '|')
	return key[i+1:]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
