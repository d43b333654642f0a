// Package assessment implements the response lifecycle for the
// questionnaire: a schema-tolerant SQLite store for submissions and
// responses, and the finalizer that aggregates them into dimension
// results.
//
// The store is the only writer to the database: responses are
// upserted (never duplicated), writes for one submission are
// serialized, and the canonical response shape is mirrored best-effort
// into the legacy answer shape that older deployments still read.
package assessment

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"permalens/internal/dimension"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds assessment store configuration.
type Config struct {
	DataDir string
	// QuestionBank overrides the embedded default question set used to
	// seed an empty database. Nil means use the default bank.
	QuestionBank []Question
}

// DefaultConfig returns the default configuration for the store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir: filepath.Join(home, ".permalens"),
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the response store adapter backed by SQLite.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks
	logf  func(format string, args ...any)

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// storeHooks are test seams for fault injection on the write path.
type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a Store with the given configuration. It creates the data
// directory if needed, opens SQLite with WAL mode, runs migrations, and
// seeds the question bank when the questions table is empty.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("assessment: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "wellbeing.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("assessment: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("assessment: pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:    db,
		cfg:   cfg,
		logf:  log.Printf,
		locks: make(map[string]*sync.Mutex),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("assessment: migration: %w", err)
	}
	if err := s.seedQuestions(); err != nil {
		return nil, fmt.Errorf("assessment: seed questions: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS questions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			text           TEXT    NOT NULL,
			dimension      TEXT    NOT NULL,
			personal_label TEXT    NOT NULL DEFAULT 'In your personal life',
			work_label     TEXT    NOT NULL DEFAULT 'At work',
			scale_start    INTEGER NOT NULL DEFAULT 0,
			scale_end      INTEGER NOT NULL DEFAULT 10,
			anchor_low     TEXT    NOT NULL DEFAULT '',
			anchor_high    TEXT    NOT NULL DEFAULT '',
			display_order  INTEGER NOT NULL,
			active         INTEGER NOT NULL DEFAULT 1
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_questions_order ON questions(display_order);

		CREATE TABLE IF NOT EXISTS submissions (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			created_at   TEXT NOT NULL DEFAULT (datetime('now')),
			completed_at TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_submissions_user ON submissions(user_id);

		CREATE TABLE IF NOT EXISTS responses (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			submission_id  TEXT    NOT NULL,
			question_id    INTEGER NOT NULL,
			personal_value INTEGER,
			work_value     INTEGER,
			created_at     TEXT    NOT NULL DEFAULT (datetime('now')),
			updated_at     TEXT    NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY (submission_id) REFERENCES submissions(id),
			FOREIGN KEY (question_id)   REFERENCES questions(id)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_responses_key ON responses(submission_id, question_id);

		CREATE TABLE IF NOT EXISTS dimension_results (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			submission_id TEXT NOT NULL,
			dimension     TEXT NOT NULL,
			context       TEXT NOT NULL,
			score         REAL NOT NULL,
			FOREIGN KEY (submission_id) REFERENCES submissions(id)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_results_cell ON dimension_results(submission_id, dimension, context);
	`
	if _, err := s.execHook(s.db, schema); err != nil {
		return err
	}

	// Legacy long-format answer shape. Older report tooling still reads
	// this table, so the write path mirrors into it until that tooling
	// is retired.
	if _, err := s.execHook(s.db, `
		CREATE TABLE IF NOT EXISTS answers_v1 (
			submission_id TEXT    NOT NULL,
			question_id   INTEGER NOT NULL,
			context       TEXT    NOT NULL,
			value         INTEGER NOT NULL,
			recorded_at   TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_answers_v1_key ON answers_v1(submission_id, question_id, context);
	`); err != nil {
		return err
	}

	// Normalize existing data
	_, _ = s.execHook(s.db, `UPDATE questions SET active = 1 WHERE active IS NULL`)                            // best-effort migration cleanup
	_, _ = s.execHook(s.db, `UPDATE responses SET updated_at = created_at WHERE updated_at IS NULL OR updated_at = ''`) // best-effort migration cleanup

	return nil
}

func (s *Store) seedQuestions() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	bank := s.cfg.QuestionBank
	if bank == nil {
		var err error
		bank, err = DefaultQuestionBank()
		if err != nil {
			return err
		}
	}

	for _, q := range bank {
		if _, err := s.execHook(s.db,
			`INSERT INTO questions (text, dimension, personal_label, work_label, scale_start, scale_end, anchor_low, anchor_high, display_order, active)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			q.Text, string(q.Dimension), q.PersonalLabel, q.WorkLabel,
			q.ScaleStart, q.ScaleEnd, q.AnchorLow, q.AnchorHigh,
			q.DisplayOrder, boolToInt(q.Active),
		); err != nil {
			return err
		}
	}
	return nil
}

// ─── Submissions ─────────────────────────────────────────────────────────────

// StartSubmission creates a new in-progress submission for a user.
func (s *Store) StartSubmission(userID string) (*Submission, error) {
	id := uuid.NewString()
	if _, err := s.execHook(s.db,
		`INSERT INTO submissions (id, user_id) VALUES (?, ?)`,
		id, userID,
	); err != nil {
		return nil, fmt.Errorf("assessment: start submission: %w: %v", ErrPersistence, err)
	}
	return s.GetSubmission(id)
}

// GetSubmission retrieves a submission by ID.
func (s *Store) GetSubmission(id string) (*Submission, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, created_at, completed_at FROM submissions WHERE id = ?`, id,
	)
	var sub Submission
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.CreatedAt, &sub.CompletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("assessment: %w: %s", ErrSubmissionNotFound, id)
		}
		return nil, fmt.Errorf("assessment: get submission: %w: %v", ErrPersistence, err)
	}
	return &sub, nil
}

// MarkCompleted sets the completed timestamp exactly once. Calling it
// on an already-completed submission is a no-op: completion is one-way
// and the timestamp is never cleared or overwritten.
func (s *Store) MarkCompleted(id string) error {
	res, err := s.execHook(s.db,
		`UPDATE submissions SET completed_at = datetime('now') WHERE id = ? AND completed_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("assessment: mark completed: %w: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already completed, or the submission is missing entirely.
		if _, err := s.GetSubmission(id); err != nil {
			return err
		}
	}
	return nil
}

// ─── Questions ───────────────────────────────────────────────────────────────

// ActiveQuestions returns the active question set in display order.
func (s *Store) ActiveQuestions() ([]Question, error) {
	rows, err := s.db.Query(
		`SELECT id, text, dimension, personal_label, work_label, scale_start, scale_end, anchor_low, anchor_high, display_order, active
		 FROM questions WHERE active = 1 ORDER BY display_order ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("assessment: list questions: %w: %v", ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var questions []Question
	for rows.Next() {
		var q Question
		var dim string
		var active int
		if err := rows.Scan(&q.ID, &q.Text, &dim, &q.PersonalLabel, &q.WorkLabel,
			&q.ScaleStart, &q.ScaleEnd, &q.AnchorLow, &q.AnchorHigh, &q.DisplayOrder, &active); err != nil {
			return nil, err
		}
		q.Dimension = dimension.Code(dim)
		q.Active = active != 0
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion retrieves a single question by ID.
func (s *Store) GetQuestion(id int64) (*Question, error) {
	row := s.db.QueryRow(
		`SELECT id, text, dimension, personal_label, work_label, scale_start, scale_end, anchor_low, anchor_high, display_order, active
		 FROM questions WHERE id = ?`, id,
	)
	var q Question
	var dim string
	var active int
	if err := row.Scan(&q.ID, &q.Text, &dim, &q.PersonalLabel, &q.WorkLabel,
		&q.ScaleStart, &q.ScaleEnd, &q.AnchorLow, &q.AnchorHigh, &q.DisplayOrder, &active); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("assessment: %w: %d", ErrQuestionNotFound, id)
		}
		return nil, fmt.Errorf("assessment: get question: %w: %v", ErrPersistence, err)
	}
	q.Dimension = dimension.Code(dim)
	q.Active = active != 0
	return &q, nil
}

// ─── Responses ───────────────────────────────────────────────────────────────

// UpsertResponse writes one response for a (submission, question) pair.
// An existing row is updated in place; a missing row is inserted. Nil
// params never overwrite stored values, so the two context values can
// be committed independently. Calling twice with identical arguments
// yields one row with the latest values, never two rows.
//
// Writes for one submission are serialized under a per-submission lock:
// the lookup-then-write pattern is not atomic at the store boundary,
// and concurrent calls for the same key could otherwise race to create
// duplicates.
func (s *Store) UpsertResponse(p UpsertResponseParams) (*Response, error) {
	lock := s.submissionLock(p.SubmissionID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.GetSubmission(p.SubmissionID); err != nil {
		return nil, err
	}
	q, err := s.GetQuestion(p.QuestionID)
	if err != nil {
		return nil, err
	}
	if p.Personal != nil && !q.InRange(*p.Personal) {
		return nil, fmt.Errorf("assessment: %w: personal value %d outside [%d, %d]",
			ErrOutOfRange, *p.Personal, q.ScaleStart, q.ScaleEnd)
	}
	if p.Work != nil && !q.InRange(*p.Work) {
		return nil, fmt.Errorf("assessment: %w: work value %d outside [%d, %d]",
			ErrOutOfRange, *p.Work, q.ScaleStart, q.ScaleEnd)
	}

	var existingID int64
	var personal, work *int
	err = s.db.QueryRow(
		`SELECT id, personal_value, work_value FROM responses
		 WHERE submission_id = ? AND question_id = ?`,
		p.SubmissionID, p.QuestionID,
	).Scan(&existingID, &personal, &work)

	switch {
	case err == nil:
		// Partial update: supplied fields win, omitted fields survive.
		if p.Personal != nil {
			personal = p.Personal
		}
		if p.Work != nil {
			work = p.Work
		}
		if _, err := s.execHook(s.db,
			`UPDATE responses
			 SET personal_value = ?, work_value = ?, updated_at = datetime('now')
			 WHERE id = ?`,
			personal, work, existingID,
		); err != nil {
			return nil, fmt.Errorf("assessment: update response: %w: %v", ErrPersistence, err)
		}
	case err == sql.ErrNoRows:
		if _, err := s.execHook(s.db,
			`INSERT INTO responses (submission_id, question_id, personal_value, work_value)
			 VALUES (?, ?, ?, ?)`,
			p.SubmissionID, p.QuestionID, p.Personal, p.Work,
		); err != nil {
			return nil, fmt.Errorf("assessment: insert response: %w: %v", ErrPersistence, err)
		}
	default:
		return nil, fmt.Errorf("assessment: lookup response: %w: %v", ErrPersistence, err)
	}

	// The canonical write succeeded; mirror into the legacy shape
	// best-effort. Failures here are logged and swallowed — they must
	// never mask a successful primary write.
	s.mirrorLegacyAnswer(p)

	return s.getResponse(p.SubmissionID, p.QuestionID)
}

// mirrorLegacyAnswer writes the supplied context values into the
// long-format answers_v1 table that older report tooling still reads.
// A schema mismatch (the table or a column missing in this deployment)
// is the expected failure class and is only logged; any other failure
// is likewise swallowed because the canonical row is already durable.
func (s *Store) mirrorLegacyAnswer(p UpsertResponseParams) {
	cells := []struct {
		context string
		value   *int
	}{
		{"personal", p.Personal},
		{"work", p.Work},
	}
	for _, c := range cells {
		if c.value == nil {
			continue
		}
		_, err := s.execHook(s.db,
			`INSERT INTO answers_v1 (submission_id, question_id, context, value)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(submission_id, question_id, context) DO UPDATE SET
			   value = excluded.value,
			   recorded_at = datetime('now')`,
			p.SubmissionID, p.QuestionID, c.context, *c.value,
		)
		if err == nil {
			continue
		}
		if isSchemaMismatch(err) {
			s.logf("assessment: legacy answer shape out of sync, mirror skipped: %v", err)
		} else {
			s.logf("assessment: legacy answer mirror failed: %v", err)
		}
	}
}

// FetchResponses returns all responses for a submission joined with
// each question's dimension code and scale bounds, in question display
// order. A submission with no responses yields an empty list, not an
// error.
func (s *Store) FetchResponses(submissionID string) ([]FetchedResponse, error) {
	if _, err := s.GetSubmission(submissionID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT r.id, r.submission_id, r.question_id, r.personal_value, r.work_value,
		        r.created_at, r.updated_at, q.dimension, q.scale_start, q.scale_end
		 FROM responses r
		 JOIN questions q ON q.id = r.question_id
		 WHERE r.submission_id = ?
		 ORDER BY q.display_order ASC`,
		submissionID,
	)
	if err != nil {
		return nil, fmt.Errorf("assessment: fetch responses: %w: %v", ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var results []FetchedResponse
	for rows.Next() {
		var fr FetchedResponse
		var dim string
		if err := rows.Scan(&fr.ID, &fr.SubmissionID, &fr.QuestionID, &fr.Personal, &fr.Work,
			&fr.CreatedAt, &fr.UpdatedAt, &dim, &fr.ScaleStart, &fr.ScaleEnd); err != nil {
			return nil, err
		}
		fr.Dimension = dimension.Code(dim)
		results = append(results, fr)
	}
	return results, rows.Err()
}

func (s *Store) getResponse(submissionID string, questionID int64) (*Response, error) {
	row := s.db.QueryRow(
		`SELECT id, submission_id, question_id, personal_value, work_value, created_at, updated_at
		 FROM responses WHERE submission_id = ? AND question_id = ?`,
		submissionID, questionID,
	)
	var r Response
	if err := row.Scan(&r.ID, &r.SubmissionID, &r.QuestionID, &r.Personal, &r.Work,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, fmt.Errorf("assessment: read back response: %w: %v", ErrPersistence, err)
	}
	return &r, nil
}

// ─── Dimension results ───────────────────────────────────────────────────────

// ReplaceDimensionResults atomically replaces all derived rows for a
// submission. Delete-then-insert in one transaction means a recompute
// never leaves stale rows mixed with fresh ones.
func (s *Store) ReplaceDimensionResults(submissionID string, results []DimensionResult) error {
	tx, err := s.beginTxHook()
	if err != nil {
		return fmt.Errorf("assessment: begin replace results: %w: %v", ErrPersistence, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := s.execHook(tx,
		`DELETE FROM dimension_results WHERE submission_id = ?`, submissionID,
	); err != nil {
		return fmt.Errorf("assessment: clear stale results: %w: %v", ErrPersistence, err)
	}

	for _, r := range results {
		if _, err := s.execHook(tx,
			`INSERT INTO dimension_results (submission_id, dimension, context, score)
			 VALUES (?, ?, ?, ?)`,
			submissionID, string(r.Dimension), string(r.Context), r.Score,
		); err != nil {
			return fmt.Errorf("assessment: insert result row: %w: %v", ErrPersistence, err)
		}
	}

	if err := s.commitHook(tx); err != nil {
		return fmt.Errorf("assessment: commit results: %w: %v", ErrPersistence, err)
	}
	return nil
}

// DimensionResults reads back the derived rows for a submission, real
// dimensions first in catalog order, composite rows last.
func (s *Store) DimensionResults(submissionID string) ([]DimensionResult, error) {
	rows, err := s.db.Query(
		`SELECT submission_id, dimension, context, score
		 FROM dimension_results WHERE submission_id = ?
		 ORDER BY dimension = 'PERMA', dimension, context`,
		submissionID,
	)
	if err != nil {
		return nil, fmt.Errorf("assessment: read results: %w: %v", ErrPersistence, err)
	}
	defer func() { _ = rows.Close() }()

	var results []DimensionResult
	for rows.Next() {
		var r DimensionResult
		var dim, ctx string
		if err := rows.Scan(&r.SubmissionID, &dim, &ctx, &r.Score); err != nil {
			return nil, err
		}
		r.Dimension = dimension.Code(dim)
		r.Context = dimension.Context(ctx)
		results = append(results, r)
	}
	return results, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate assessment statistics.
func (s *Store) Stats() (*Stats, error) {
	var st Stats
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM submissions`, &st.TotalSubmissions},
		{`SELECT COUNT(*) FROM submissions WHERE completed_at IS NOT NULL`, &st.CompletedSubmissions},
		{`SELECT COUNT(*) FROM responses`, &st.TotalResponses},
		{`SELECT COUNT(*) FROM questions WHERE active = 1`, &st.ActiveQuestions},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("assessment: stats: %w: %v", ErrPersistence, err)
		}
	}
	return &st, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// submissionLock returns the mutex serializing writes for one
// submission. Locks are never removed; a session touches a handful of
// submissions at most.
func (s *Store) submissionLock(submissionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[submissionID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[submissionID] = lock
	}
	return lock
}

// isSchemaMismatch checks for the SQLite error class raised when a
// statement references a table or column this deployment doesn't have.
func isSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
