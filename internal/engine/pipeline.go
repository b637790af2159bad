package engine

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/pov-engine/internal/config"
	"github.com/sells-group/pov-engine/internal/model"
)

// Engine runs the triangulation/consensus pipeline. Configuration is fixed
// at construction; the engine itself carries no mutable state, so one
// instance can serve concurrent runs for different scopes.
type Engine struct {
	cfg config.EngineConfig
}

// New creates an Engine with the given configuration.
func New(cfg config.EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// Input is one run's worth of extracted entities plus the full evidence
// inventory for the engagement/scope. Evidence items with zero extracted
// entities must still appear in Evidence: the gap detector counts them.
type Input struct {
	EngagementID string                  `json:"engagement_id"`
	Scope        string                  `json:"scope"`
	Entities     []model.ExtractedEntity `json:"entities"`
	Evidence     []model.EvidenceItem    `json:"evidence"`
}

// Run executes the full pipeline: validate, triangulate, resolve consensus,
// classify confidence, detect gaps. It either returns a complete bundle or
// fails entirely; there is no partial output and nothing is retried — the
// computation is deterministic, so a failure would repeat identically.
//
// The bundle's Version is zero; the version manager assigns it when the
// bundle is published.
func (e *Engine) Run(in Input) (*model.ModelBundle, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("engagement", in.EngagementID),
		zap.String("scope", in.Scope),
	)
	log.Info("engine: starting pipeline run",
		zap.Int("entities", len(in.Entities)),
		zap.Int("evidence_items", len(in.Evidence)),
	)

	modelID := uuid.New().String()

	groups := e.Triangulate(in.Entities, in.Evidence)
	consensus, contradictions := e.Resolve(groups, in.Evidence)

	elements := make([]model.ProcessElement, 0, len(consensus))
	for _, ce := range consensus {
		score := e.ConfidenceScore(ce.Triangulated.TriangulationScore, ce.WeightedVoteScore)
		elements = append(elements, model.ProcessElement{
			ID:                 uuid.New().String(),
			ModelID:            modelID,
			Type:               ce.Triangulated.Entity.Type,
			Name:               ce.Triangulated.Entity.Name,
			ConfidenceScore:    score,
			TriangulationScore: ce.Triangulated.TriangulationScore,
			WeightedVoteScore:  ce.WeightedVoteScore,
			CorroborationLevel: ce.Triangulated.CorroborationLevel,
			ConfidenceLevel:    e.ConfidenceLevel(score),
			Brightness:         e.BrightnessFor(score),
			EvidenceCount:      ce.Triangulated.SourceCount,
			EvidenceIDs:        ce.Triangulated.EvidenceIDs,
			Attributes:         ce.ResolvedAttributes,
		})
	}

	for i := range contradictions {
		contradictions[i].ID = uuid.New().String()
		contradictions[i].ModelID = modelID
	}

	gaps := e.DetectGaps(elements, in.Evidence)
	for i := range gaps {
		gaps[i].ID = uuid.New().String()
		gaps[i].ModelID = modelID
	}

	overall := AggregateConfidence(elements)

	bundle := &model.ModelBundle{
		Model: model.ProcessModel{
			ID:                 modelID,
			EngagementID:       in.EngagementID,
			Scope:              in.Scope,
			Status:             model.StatusCompleted,
			ConfidenceScore:    overall,
			ElementCount:       len(elements),
			EvidenceCount:      len(in.Evidence),
			ContradictionCount: len(contradictions),
			GeneratedBy:        model.GeneratedBy,
			GeneratedAt:        time.Now().UTC(),
		},
		Elements:       elements,
		Contradictions: contradictions,
		Gaps:           gaps,
	}

	log.Info("engine: pipeline run complete",
		zap.String("model_id", modelID),
		zap.Int("elements", len(elements)),
		zap.Int("contradictions", len(contradictions)),
		zap.Int("gaps", len(gaps)),
		zap.Float64("confidence", overall),
	)

	return bundle, nil
}
