package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ppiankov/certmap/internal/logger"
	"github.com/ppiankov/certmap/internal/metrics"
	"github.com/ppiankov/certmap/internal/model"
)

// MatcherManual marks associations created by hand rather than by a mapping run
const MatcherManual = "manual"

// Association is one stored question to provision link
type Association struct {
	RunID       string           `json:"run_id,omitempty"`
	QuestionID  string           `json:"question_id"`
	ProvisionID string           `json:"provision_id"`
	Rank        int              `json:"rank"`
	Confidence  model.Confidence `json:"confidence"`
	Rationale   string           `json:"rationale,omitempty"`
	Matcher     string           `json:"matcher,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Run describes one persisted batch
type Run struct {
	ID          string    `json:"id"`
	Source      string    `json:"source,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	Questions   int       `json:"question_count"`
	Mappings    int       `json:"mapping_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to :memory: would see its own empty database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite store opened", zap.String("path", path))

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS mapping_runs (
		id TEXT PRIMARY KEY,
		source TEXT,
		fingerprint TEXT NOT NULL,
		question_count INTEGER NOT NULL,
		mapping_count INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON mapping_runs(created_at);

	CREATE TABLE IF NOT EXISTS question_provisions (
		question_id TEXT NOT NULL,
		provision_id TEXT NOT NULL,
		run_id TEXT,
		position INTEGER NOT NULL DEFAULT 0,
		confidence TEXT NOT NULL,
		rationale TEXT,
		matcher TEXT,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (question_id, provision_id),
		FOREIGN KEY (run_id) REFERENCES mapping_runs(id) ON DELETE SET NULL
	);
	CREATE INDEX IF NOT EXISTS idx_qp_provision ON question_provisions(provision_id);
	CREATE INDEX IF NOT EXISTS idx_qp_run ON question_provisions(run_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug("SQLite schema initialized")
	return nil
}

// SaveMappings records a batch run and replaces the stored provision list of
// every question in results. Manual associations survive a re-run. Results
// without a question id cannot be addressed later and are not stored.
// An empty runID gets a fresh UUID. The run id actually used is returned.
func (s *Store) SaveMappings(ctx context.Context, runID string, corpus model.CorpusMeta, results []model.QuestionMappingResult) (string, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	now := time.Now().Unix()

	persisted := make([]model.QuestionMappingResult, 0, len(results))
	total := 0
	for _, r := range results {
		if r.QuestionID == "" {
			continue
		}
		persisted = append(persisted, r)
		total += len(r.Mappings)
	}
	if skipped := len(results) - len(persisted); skipped > 0 {
		logger.Warn("Skipping mapping results without question id", zap.Int("count", skipped))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO mapping_runs (id, source, fingerprint, question_count, mapping_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, corpus.Source, corpus.Fingerprint, len(persisted), total, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	del, err := tx.PrepareContext(ctx,
		`DELETE FROM question_provisions WHERE question_id = ? AND (matcher IS NULL OR matcher <> ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare delete: %w", err)
	}
	defer func() { _ = del.Close() }()

	// Only manual rows are left to conflict with; they keep their matcher
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO question_provisions (question_id, provision_id, run_id, position, confidence, rationale, matcher, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(question_id, provision_id) DO UPDATE SET
			position = excluded.position
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range persisted {
		if _, err := del.ExecContext(ctx, r.QuestionID, MatcherManual); err != nil {
			return "", fmt.Errorf("failed to clear mappings of %s: %w", r.QuestionID, err)
		}
		for rank, m := range r.Mappings {
			if _, err := stmt.ExecContext(ctx, r.QuestionID, m.ProvisionID, runID, rank, string(m.Confidence), m.Rationale, m.Matcher, now); err != nil {
				return "", fmt.Errorf("failed to insert mapping %s -> %s: %w", r.QuestionID, m.ProvisionID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	metrics.MappingsPersisted.Add(float64(total))
	logger.Info("Mapping run saved",
		zap.String("run_id", runID),
		zap.Int("questions", len(persisted)),
		zap.Int("mappings", total),
	)

	return runID, nil
}

// CreateMapping adds or replaces a manual association
func (s *Store) CreateMapping(ctx context.Context, questionID, provisionID string) error {
	if questionID == "" || provisionID == "" {
		return errors.New("question id and provision id are required")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO question_provisions (question_id, provision_id, run_id, position, confidence, rationale, matcher, created_at)
		VALUES (?, ?, NULL, 0, ?, ?, ?, ?)
		ON CONFLICT(question_id, provision_id) DO UPDATE SET
			run_id = NULL,
			confidence = excluded.confidence,
			rationale = excluded.rationale,
			matcher = excluded.matcher,
			created_at = excluded.created_at
	`, questionID, provisionID, string(model.ConfidenceHigh), "Manually mapped", MatcherManual, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to create mapping: %w", err)
	}

	logger.Debug("Manual mapping created", zap.String("question_id", questionID), zap.String("provision_id", provisionID))
	return nil
}

// DeleteMapping removes one association, reporting whether it existed
func (s *Store) DeleteMapping(ctx context.Context, questionID, provisionID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM question_provisions WHERE question_id = ? AND provision_id = ?`,
		questionID, provisionID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete mapping: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete mapping: %w", err)
	}
	return n > 0, nil
}

// ProvisionsForQuestion lists the associations of a question in rank order
func (s *Store) ProvisionsForQuestion(ctx context.Context, questionID string) ([]Association, error) {
	return s.queryAssociations(ctx,
		`WHERE question_id = ? ORDER BY position, provision_id`, questionID)
}

// QuestionsForProvision lists the associations of a provision by question id
func (s *Store) QuestionsForProvision(ctx context.Context, provisionID string) ([]Association, error) {
	return s.queryAssociations(ctx,
		`WHERE provision_id = ? ORDER BY question_id`, provisionID)
}

// GetRun returns a stored run; sql.ErrNoRows is wrapped when it does not exist
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	query := `SELECT id, source, fingerprint, question_count, mapping_count, created_at FROM mapping_runs WHERE id = ?`

	var run Run
	var source sql.NullString
	var createdAt int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.ID,
		&source,
		&run.Fingerprint,
		&run.Questions,
		&run.Mappings,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.Source = source.String
	run.CreatedAt = time.Unix(createdAt, 0)
	return &run, nil
}

func (s *Store) queryAssociations(ctx context.Context, where string, arg string) ([]Association, error) {
	query := `SELECT question_id, provision_id, run_id, position, confidence, rationale, matcher, created_at FROM question_provisions ` + where

	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Association
	for rows.Next() {
		var a Association
		var runID, rationale, matcher sql.NullString
		var confidence string
		var createdAt int64

		if err := rows.Scan(&a.QuestionID, &a.ProvisionID, &runID, &a.Rank, &confidence, &rationale, &matcher, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}

		a.RunID = runID.String
		a.Confidence = model.Confidence(confidence)
		a.Rationale = rationale.String
		a.Matcher = matcher.String
		a.CreatedAt = time.Unix(createdAt, 0)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mappings: %w", err)
	}
	return out, nil
}
