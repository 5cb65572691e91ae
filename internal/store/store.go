// Package store persists completed verification runs to SQLite so
// operators can revisit past verdicts. Persistence is optional; the
// pipeline works without it.
//
// Store is safe for concurrent use. The underlying sql.DB handles
// connection pooling; SaveRun wraps its inserts in one transaction
// so a run is either fully recorded or absent.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rmartin/veracity/internal/model"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// Store persists run reports.
type Store struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL mode allows a reader (the list command) alongside a writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		claim_count INTEGER NOT NULL,
		stats_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS claims (
		run_id TEXT NOT NULL REFERENCES runs(id),
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		domain TEXT,
		jurisdiction TEXT,
		state TEXT NOT NULL,
		error TEXT,
		verdict TEXT,
		confidence REAL,
		rationale TEXT,
		rule_applied TEXT,
		signal_json TEXT,
		PRIMARY KEY (run_id, position)
	);

	CREATE TABLE IF NOT EXISTS evidence (
		id TEXT NOT NULL,
		run_id TEXT NOT NULL REFERENCES runs(id),
		claim_position INTEGER NOT NULL,
		source_name TEXT,
		url TEXT,
		published_at DATETIME,
		credibility REAL,
		relevance REAL,
		kind TEXT,
		text TEXT,
		cited INTEGER DEFAULT 0,
		PRIMARY KEY (run_id, claim_position, id)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_evidence_claim ON evidence(run_id, claim_position);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun records a completed run, its claims, and their evidence.
func (s *Store) SaveRun(ctx context.Context, report *model.RunReport) error {
	statsJSON, err := json.Marshal(report.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, claim_count, stats_json) VALUES (?, ?, ?, ?, ?)`,
		report.RunID, report.StartedAt, report.FinishedAt, len(report.Results), string(statsJSON),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, res := range report.Results {
		signalJSON, err := json.Marshal(res.Signal)
		if err != nil {
			return fmt.Errorf("encode signal: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO claims (run_id, position, text, domain, jurisdiction, state, error, verdict, confidence, rationale, rule_applied, signal_json)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, res.Claim.Position, res.Claim.Text, res.Claim.Domain, res.Claim.Jurisdiction,
			string(res.State), res.Error,
			string(res.Judgment.Verdict), res.Judgment.Confidence, res.Judgment.Rationale, res.Judgment.RuleApplied,
			string(signalJSON),
		); err != nil {
			return fmt.Errorf("insert claim %d: %w", res.Claim.Position, err)
		}

		cited := make(map[string]bool, len(res.Judgment.CitedEvidenceIDs))
		for _, id := range res.Judgment.CitedEvidenceIDs {
			cited[id] = true
		}
		for _, item := range res.Evidence {
			var published any
			if item.PublishedAt != nil {
				published = *item.PublishedAt
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO evidence (id, run_id, claim_position, source_name, url, published_at, credibility, relevance, kind, text, cited)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				item.ID, report.RunID, res.Claim.Position, item.SourceName, item.URL, published,
				item.Credibility, item.Relevance, string(item.Kind), item.Text, boolToInt(cited[item.ID]),
			); err != nil {
				return fmt.Errorf("insert evidence %s: %w", item.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	ClaimCount int
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, claim_count FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.StartedAt, &r.FinishedAt, &r.ClaimCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun loads a stored run. Evidence text is restored so rationales
// can be re-examined; stage events are not persisted.
func (s *Store) GetRun(ctx context.Context, runID string) (*model.RunReport, error) {
	report := &model.RunReport{RunID: runID}

	var claimCount int
	var statsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT started_at, finished_at, claim_count, stats_json FROM runs WHERE id = ?`, runID,
	).Scan(&report.StartedAt, &report.FinishedAt, &claimCount, &statsJSON)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &report.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	report.Results = make([]model.ClaimResult, claimCount)
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, text, domain, jurisdiction, state, error, verdict, confidence, rationale, rule_applied, signal_json
		 FROM claims WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load claims: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res model.ClaimResult
		var state, verdict, signalJSON string
		if err := rows.Scan(&res.Claim.Position, &res.Claim.Text, &res.Claim.Domain, &res.Claim.Jurisdiction,
			&state, &res.Error, &verdict, &res.Judgment.Confidence, &res.Judgment.Rationale,
			&res.Judgment.RuleApplied, &signalJSON); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		res.State = model.ClaimState(state)
		res.Judgment.Verdict = model.Verdict(verdict)
		if signalJSON != "" {
			if err := json.Unmarshal([]byte(signalJSON), &res.Signal); err != nil {
				return nil, fmt.Errorf("decode signal: %w", err)
			}
		}
		if res.Claim.Position >= 0 && res.Claim.Position < claimCount {
			report.Results[res.Claim.Position] = res
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadEvidence(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Store) loadEvidence(ctx context.Context, report *model.RunReport) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, claim_position, source_name, url, published_at, credibility, relevance, kind, text, cited
		 FROM evidence WHERE run_id = ? ORDER BY claim_position`, report.RunID)
	if err != nil {
		return fmt.Errorf("load evidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.EvidenceItem
		var pos, citedInt int
		var published sql.NullTime
		var kind string
		if err := rows.Scan(&item.ID, &pos, &item.SourceName, &item.URL, &published,
			&item.Credibility, &item.Relevance, &kind, &item.Text, &citedInt); err != nil {
			return fmt.Errorf("scan evidence: %w", err)
		}
		item.Kind = model.ProviderKind(kind)
		if published.Valid {
			t := published.Time
			item.PublishedAt = &t
		}
		if pos < 0 || pos >= len(report.Results) {
			continue
		}
		report.Results[pos].Evidence = append(report.Results[pos].Evidence, item)
		if citedInt != 0 {
			report.Results[pos].Judgment.CitedEvidenceIDs = append(report.Results[pos].Judgment.CitedEvidenceIDs, item.ID)
		}
	}
	return rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
