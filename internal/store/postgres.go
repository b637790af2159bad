package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pov-engine/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS process_models (
	id                  TEXT PRIMARY KEY,
	engagement_id       TEXT NOT NULL,
	scope               TEXT NOT NULL,
	version             INTEGER NOT NULL,
	status              TEXT NOT NULL,
	confidence_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	element_count       INTEGER NOT NULL DEFAULT 0,
	evidence_count      INTEGER NOT NULL DEFAULT 0,
	contradiction_count INTEGER NOT NULL DEFAULT 0,
	generated_by        TEXT NOT NULL,
	generated_at        TIMESTAMPTZ NOT NULL,
	UNIQUE (engagement_id, scope, version)
);

CREATE TABLE IF NOT EXISTS process_elements (
	id                  TEXT PRIMARY KEY,
	model_id            TEXT NOT NULL REFERENCES process_models(id),
	element_type        TEXT NOT NULL,
	name                TEXT NOT NULL,
	confidence_score    DOUBLE PRECISION NOT NULL DEFAULT 0,
	triangulation_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	weighted_vote_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	corroboration_level TEXT NOT NULL,
	confidence_level    TEXT NOT NULL,
	brightness          TEXT NOT NULL,
	evidence_count      INTEGER NOT NULL DEFAULT 0,
	evidence_ids        JSONB NOT NULL DEFAULT '[]',
	attributes          JSONB
);

CREATE TABLE IF NOT EXISTS contradictions (
	id                TEXT PRIMARY KEY,
	model_id          TEXT NOT NULL REFERENCES process_models(id),
	element_name      TEXT NOT NULL,
	field_name        TEXT NOT NULL,
	value_entries     JSONB NOT NULL DEFAULT '[]',
	resolution_value  TEXT,
	resolution_reason TEXT,
	evidence_ids      JSONB NOT NULL DEFAULT '[]'
);

CREATE TABLE IF NOT EXISTS evidence_gaps (
	id                 TEXT PRIMARY KEY,
	model_id           TEXT NOT NULL REFERENCES process_models(id),
	gap_type           TEXT NOT NULL,
	description        TEXT NOT NULL,
	severity           TEXT NOT NULL,
	recommendation     TEXT,
	related_element_id TEXT
);

CREATE INDEX IF NOT EXISTS idx_process_models_engagement ON process_models(engagement_id, scope);
CREATE INDEX IF NOT EXISTS idx_process_elements_model_id ON process_elements(model_id);
CREATE INDEX IF NOT EXISTS idx_contradictions_model_id ON contradictions(model_id);
CREATE INDEX IF NOT EXISTS idx_evidence_gaps_model_id ON evidence_gaps(model_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveModel(ctx context.Context, bundle *model.ModelBundle) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx)

	m := bundle.Model
	_, err = tx.Exec(ctx,
		`INSERT INTO process_models
		 (id, engagement_id, scope, version, status, confidence_score, element_count, evidence_count, contradiction_count, generated_by, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID, m.EngagementID, m.Scope, m.Version, string(m.Status), m.ConfidenceScore,
		m.ElementCount, m.EvidenceCount, m.ContradictionCount, m.GeneratedBy, m.GeneratedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert model %s", m.ID)
	}

	for _, el := range bundle.Elements {
		evidenceJSON, err := json.Marshal(el.EvidenceIDs)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal evidence ids")
		}
		attrsJSON, err := json.Marshal(el.Attributes)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal attributes")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO process_elements
			 (id, model_id, element_type, name, confidence_score, triangulation_score, weighted_vote_score, corroboration_level, confidence_level, brightness, evidence_count, evidence_ids, attributes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			el.ID, el.ModelID, string(el.Type), el.Name, el.ConfidenceScore, el.TriangulationScore,
			el.WeightedVoteScore, string(el.CorroborationLevel), string(el.ConfidenceLevel),
			string(el.Brightness), el.EvidenceCount, evidenceJSON, attrsJSON,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert element %s", el.ID)
		}
	}

	for _, c := range bundle.Contradictions {
		valuesJSON, err := json.Marshal(c.Values)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal contradiction values")
		}
		evidenceJSON, err := json.Marshal(c.EvidenceIDs)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal contradiction evidence ids")
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO contradictions
			 (id, model_id, element_name, field_name, value_entries, resolution_value, resolution_reason, evidence_ids)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.ModelID, c.ElementName, c.FieldName, valuesJSON,
			c.ResolutionValue, c.ResolutionReason, evidenceJSON,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert contradiction %s", c.ID)
		}
	}

	for _, g := range bundle.Gaps {
		_, err = tx.Exec(ctx,
			`INSERT INTO evidence_gaps
			 (id, model_id, gap_type, description, severity, recommendation, related_element_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			g.ID, g.ModelID, string(g.GapType), g.Description, string(g.Severity),
			g.Recommendation, g.RelatedElementID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: insert gap %s", g.ID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

func (s *PostgresStore) GetModel(ctx context.Context, modelID string) (*model.ProcessModel, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, engagement_id, scope, version, status, confidence_score, element_count, evidence_count, contradiction_count, generated_by, generated_at
		 FROM process_models WHERE id = $1`,
		modelID,
	)

	var m model.ProcessModel
	var status string
	err := row.Scan(&m.ID, &m.EngagementID, &m.Scope, &m.Version, &status, &m.ConfidenceScore,
		&m.ElementCount, &m.EvidenceCount, &m.ContradictionCount, &m.GeneratedBy, &m.GeneratedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get model %s", modelID)
	}
	m.Status = model.ProcessModelStatus(status)
	return &m, nil
}

func (s *PostgresStore) GetElements(ctx context.Context, modelID string) ([]model.ProcessElement, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, model_id, element_type, name, confidence_score, triangulation_score, weighted_vote_score, corroboration_level, confidence_level, brightness, evidence_count, evidence_ids, attributes
		 FROM process_elements WHERE model_id = $1 ORDER BY name`,
		modelID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query elements %s", modelID)
	}
	defer rows.Close()

	var elements []model.ProcessElement
	for rows.Next() {
		var el model.ProcessElement
		var elType, corrob, level, brightness string
		var evidenceJSON, attrsJSON []byte
		if err := rows.Scan(&el.ID, &el.ModelID, &elType, &el.Name, &el.ConfidenceScore,
			&el.TriangulationScore, &el.WeightedVoteScore, &corrob, &level, &brightness,
			&el.EvidenceCount, &evidenceJSON, &attrsJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan element")
		}
		el.Type = model.EntityType(elType)
		el.CorroborationLevel = model.CorroborationLevel(corrob)
		el.ConfidenceLevel = model.ConfidenceLevel(level)
		el.Brightness = model.Brightness(brightness)
		if err := json.Unmarshal(evidenceJSON, &el.EvidenceIDs); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal evidence ids")
		}
		if len(attrsJSON) > 0 {
			if err := json.Unmarshal(attrsJSON, &el.Attributes); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal attributes")
			}
		}
		elements = append(elements, el)
	}
	return elements, eris.Wrap(rows.Err(), "postgres: iterate elements")
}

func (s *PostgresStore) GetContradictions(ctx context.Context, modelID string) ([]model.Contradiction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, model_id, element_name, field_name, value_entries, resolution_value, resolution_reason, evidence_ids
		 FROM contradictions WHERE model_id = $1 ORDER BY element_name, field_name`,
		modelID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query contradictions %s", modelID)
	}
	defer rows.Close()

	var result []model.Contradiction
	for rows.Next() {
		var c model.Contradiction
		var valuesJSON, evidenceJSON []byte
		if err := rows.Scan(&c.ID, &c.ModelID, &c.ElementName, &c.FieldName, &valuesJSON,
			&c.ResolutionValue, &c.ResolutionReason, &evidenceJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contradiction")
		}
		if err := json.Unmarshal(valuesJSON, &c.Values); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal contradiction values")
		}
		if err := json.Unmarshal(evidenceJSON, &c.EvidenceIDs); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal contradiction evidence ids")
		}
		result = append(result, c)
	}
	return result, eris.Wrap(rows.Err(), "postgres: iterate contradictions")
}

func (s *PostgresStore) GetGaps(ctx context.Context, modelID string) ([]model.EvidenceGap, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, model_id, gap_type, description, severity, recommendation, related_element_id
		 FROM evidence_gaps WHERE model_id = $1
		 ORDER BY CASE severity WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, gap_type`,
		modelID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query gaps %s", modelID)
	}
	defer rows.Close()

	var result []model.EvidenceGap
	for rows.Next() {
		var g model.EvidenceGap
		var gapType, severity string
		if err := rows.Scan(&g.ID, &g.ModelID, &gapType, &g.Description, &severity,
			&g.Recommendation, &g.RelatedElementID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan gap")
		}
		g.GapType = model.GapType(gapType)
		g.Severity = model.GapSeverity(severity)
		result = append(result, g)
	}
	return result, eris.Wrap(rows.Err(), "postgres: iterate gaps")
}

func (s *PostgresStore) ListModels(ctx context.Context, engagementID, scope string) ([]model.ProcessModel, error) {
	query := `SELECT id, engagement_id, scope, version, status, confidence_score, element_count, evidence_count, contradiction_count, generated_by, generated_at
		 FROM process_models WHERE engagement_id = $1`
	args := []any{engagementID}
	if scope != "" {
		query += ` AND scope = $2`
		args = append(args, scope)
	}
	query += ` ORDER BY scope, version`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list models %s", engagementID)
	}
	defer rows.Close()

	var result []model.ProcessModel
	for rows.Next() {
		var m model.ProcessModel
		var status string
		if err := rows.Scan(&m.ID, &m.EngagementID, &m.Scope, &m.Version, &status, &m.ConfidenceScore,
			&m.ElementCount, &m.EvidenceCount, &m.ContradictionCount, &m.GeneratedBy, &m.GeneratedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan model")
		}
		m.Status = model.ProcessModelStatus(status)
		result = append(result, m)
	}
	return result, eris.Wrap(rows.Err(), "postgres: iterate models")
}

func (s *PostgresStore) LatestVersion(ctx context.Context, engagementID, scope string) (int, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM process_models WHERE engagement_id = $1 AND scope = $2`,
		engagementID, scope,
	)
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, eris.Wrapf(err, "postgres: latest version %s/%s", engagementID, scope)
	}
	return version, nil
}
