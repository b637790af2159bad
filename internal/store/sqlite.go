package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pov-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS process_models (
	id                  TEXT PRIMARY KEY,
	engagement_id       TEXT NOT NULL,
	scope               TEXT NOT NULL,
	version             INTEGER NOT NULL,
	status              TEXT NOT NULL,
	confidence_score    REAL NOT NULL DEFAULT 0,
	element_count       INTEGER NOT NULL DEFAULT 0,
	evidence_count      INTEGER NOT NULL DEFAULT 0,
	contradiction_count INTEGER NOT NULL DEFAULT 0,
	generated_by        TEXT NOT NULL,
	generated_at        DATETIME NOT NULL,
	UNIQUE (engagement_id, scope, version)
);

CREATE TABLE IF NOT EXISTS process_elements (
	id                  TEXT PRIMARY KEY,
	model_id            TEXT NOT NULL REFERENCES process_models(id),
	element_type        TEXT NOT NULL,
	name                TEXT NOT NULL,
	confidence_score    REAL NOT NULL DEFAULT 0,
	triangulation_score REAL NOT NULL DEFAULT 0,
	weighted_vote_score REAL NOT NULL DEFAULT 0,
	corroboration_level TEXT NOT NULL,
	confidence_level    TEXT NOT NULL,
	brightness          TEXT NOT NULL,
	evidence_count      INTEGER NOT NULL DEFAULT 0,
	evidence_ids        TEXT NOT NULL DEFAULT '[]',
	attributes          TEXT
);

CREATE TABLE IF NOT EXISTS contradictions (
	id                TEXT PRIMARY KEY,
	model_id          TEXT NOT NULL REFERENCES process_models(id),
	element_name      TEXT NOT NULL,
	field_name        TEXT NOT NULL,
	value_entries     TEXT NOT NULL DEFAULT '[]',
	resolution_value  TEXT,
	resolution_reason TEXT,
	evidence_ids      TEXT NOT NULL DEFAULT '[]'
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

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveModel(ctx context.Context, bundle *model.ModelBundle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	m := bundle.Model
	_, err = tx.ExecContext(ctx,
		`INSERT INTO process_models
		 (id, engagement_id, scope, version, status, confidence_score, element_count, evidence_count, contradiction_count, generated_by, generated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.EngagementID, m.Scope, m.Version, string(m.Status), m.ConfidenceScore,
		m.ElementCount, m.EvidenceCount, m.ContradictionCount, m.GeneratedBy, m.GeneratedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert model %s", m.ID)
	}

	for _, el := range bundle.Elements {
		evidenceJSON, err := json.Marshal(el.EvidenceIDs)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal evidence ids")
		}
		attrsJSON, err := json.Marshal(el.Attributes)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal attributes")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO process_elements
			 (id, model_id, element_type, name, confidence_score, triangulation_score, weighted_vote_score, corroboration_level, confidence_level, brightness, evidence_count, evidence_ids, attributes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			el.ID, el.ModelID, string(el.Type), el.Name, el.ConfidenceScore, el.TriangulationScore,
			el.WeightedVoteScore, string(el.CorroborationLevel), string(el.ConfidenceLevel),
			string(el.Brightness), el.EvidenceCount, string(evidenceJSON), string(attrsJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert element %s", el.ID)
		}
	}

	for _, c := range bundle.Contradictions {
		valuesJSON, err := json.Marshal(c.Values)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal contradiction values")
		}
		evidenceJSON, err := json.Marshal(c.EvidenceIDs)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal contradiction evidence ids")
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO contradictions
			 (id, model_id, element_name, field_name, value_entries, resolution_value, resolution_reason, evidence_ids)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.ModelID, c.ElementName, c.FieldName, string(valuesJSON),
			c.ResolutionValue, c.ResolutionReason, string(evidenceJSON),
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert contradiction %s", c.ID)
		}
	}

	for _, g := range bundle.Gaps {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO evidence_gaps
			 (id, model_id, gap_type, description, severity, recommendation, related_element_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.ModelID, string(g.GapType), g.Description, string(g.Severity),
			g.Recommendation, g.RelatedElementID,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert gap %s", g.ID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetModel(ctx context.Context, modelID string) (*model.ProcessModel, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, engagement_id, scope, version, status, confidence_score, element_count, evidence_count, contradiction_count, generated_by, generated_at
		 FROM process_models WHERE id = ?`,
		modelID,
	)

	var m model.ProcessModel
	var status string
	err := row.Scan(&m.ID, &m.EngagementID, &m.Scope, &m.Version, &status, &m.ConfidenceScore,
		&m.ElementCount, &m.EvidenceCount, &m.ContradictionCount, &m.GeneratedBy, &m.GeneratedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get model %s", modelID)
	}
	m.Status = model.ProcessModelStatus(status)
	return &m, nil
}

func (s *SQLiteStore) GetElements(ctx context.Context, modelID string) ([]model.ProcessElement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model_id, element_type, name, confidence_score, triangulation_score, weighted_vote_score, corroboration_level, confidence_level, brightness, evidence_count, evidence_ids, attributes
		 FROM process_elements WHERE model_id = ? ORDER BY name`,
		modelID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query elements %s", modelID)
	}
	defer rows.Close()

	var elements []model.ProcessElement
	for rows.Next() {
		var el model.ProcessElement
		var elType, corrob, level, brightness string
		var evidenceJSON string
		var attrsJSON sql.NullString
		if err := rows.Scan(&el.ID, &el.ModelID, &elType, &el.Name, &el.ConfidenceScore,
			&el.TriangulationScore, &el.WeightedVoteScore, &corrob, &level, &brightness,
			&el.EvidenceCount, &evidenceJSON, &attrsJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan element")
		}
		el.Type = model.EntityType(elType)
		el.CorroborationLevel = model.CorroborationLevel(corrob)
		el.ConfidenceLevel = model.ConfidenceLevel(level)
		el.Brightness = model.Brightness(brightness)
		if err := json.Unmarshal([]byte(evidenceJSON), &el.EvidenceIDs); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal evidence ids")
		}
		if attrsJSON.Valid && attrsJSON.String != "" && attrsJSON.String != "null" {
			if err := json.Unmarshal([]byte(attrsJSON.String), &el.Attributes); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal attributes")
			}
		}
		elements = append(elements, el)
	}
	return elements, eris.Wrap(rows.Err(), "sqlite: iterate elements")
}

func (s *SQLiteStore) GetContradictions(ctx context.Context, modelID string) ([]model.Contradiction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model_id, element_name, field_name, value_entries, resolution_value, resolution_reason, evidence_ids
		 FROM contradictions WHERE model_id = ? ORDER BY element_name, field_name`,
		modelID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query contradictions %s", modelID)
	}
	defer rows.Close()

	var result []model.Contradiction
	for rows.Next() {
		var c model.Contradiction
		var valuesJSON, evidenceJSON string
		if err := rows.Scan(&c.ID, &c.ModelID, &c.ElementName, &c.FieldName, &valuesJSON,
			&c.ResolutionValue, &c.ResolutionReason, &evidenceJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contradiction")
		}
		if err := json.Unmarshal([]byte(valuesJSON), &c.Values); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal contradiction values")
		}
		if err := json.Unmarshal([]byte(evidenceJSON), &c.EvidenceIDs); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal contradiction evidence ids")
		}
		result = append(result, c)
	}
	return result, eris.Wrap(rows.Err(), "sqlite: iterate contradictions")
}

func (s *SQLiteStore) GetGaps(ctx context.Context, modelID string) ([]model.EvidenceGap, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, model_id, gap_type, description, severity, recommendation, related_element_id
		 FROM evidence_gaps WHERE model_id = ?
		 ORDER BY CASE severity WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, gap_type`,
		modelID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query gaps %s", modelID)
	}
	defer rows.Close()

	var result []model.EvidenceGap
	for rows.Next() {
		var g model.EvidenceGap
		var gapType, severity string
		if err := rows.Scan(&g.ID, &g.ModelID, &gapType, &g.Description, &severity,
			&g.Recommendation, &g.RelatedElementID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan gap")
		}
		g.GapType = model.GapType(gapType)
		g.Severity = model.GapSeverity(severity)
		result = append(result, g)
	}
	return result, eris.Wrap(rows.Err(), "sqlite: iterate gaps")
}

func (s *SQLiteStore) ListModels(ctx context.Context, engagementID, scope string) ([]model.ProcessModel, error) {
	query := `SELECT id, engagement_id, scope, version, status, confidence_score, element_count, evidence_count, contradiction_count, generated_by, generated_at
		 FROM process_models WHERE engagement_id = ?`
	args := []any{engagementID}
	if scope != "" {
		query += ` AND scope = ?`
		args = append(args, scope)
	}
	query += ` ORDER BY scope, version`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list models %s", engagementID)
	}
	defer rows.Close()

	var result []model.ProcessModel
	for rows.Next() {
		var m model.ProcessModel
		var status string
		if err := rows.Scan(&m.ID, &m.EngagementID, &m.Scope, &m.Version, &status, &m.ConfidenceScore,
			&m.ElementCount, &m.EvidenceCount, &m.ContradictionCount, &m.GeneratedBy, &m.GeneratedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan model")
		}
		m.Status = model.ProcessModelStatus(status)
		result = append(result, m)
	}
	return result, eris.Wrap(rows.Err(), "sqlite: iterate models")
}

func (s *SQLiteStore) LatestVersion(ctx context.Context, engagementID, scope string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM process_models WHERE engagement_id = ? AND scope = ?`,
		engagementID, scope,
	)
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, eris.Wrapf(err, "sqlite: latest version %s/%s", engagementID, scope)
	}
	return version, nil
}
