package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sari-edu/sari/internal/model"

	_ "modernc.org/sqlite"
)

// SubmissionRecord is a scored submission as stored.
type SubmissionRecord struct {
	ID          int64
	WorksheetID string
	Name        string
	Score       float64
	MaxScore    float64
	Feedback    string
	ComputedBy  string
	Answers     []model.Answer
	SubmittedAt time.Time
}

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if !strings.HasPrefix(dbPath, ":memory:") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: every :memory: connection is a separate database.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worksheets (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		theme TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT '',
		generated_at TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		worksheet_id TEXT NOT NULL,
		name TEXT NOT NULL,
		score REAL NOT NULL DEFAULT 0,
		max_score REAL NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		computed_by TEXT NOT NULL DEFAULT '',
		answers TEXT NOT NULL DEFAULT '[]',
		submitted_at DATETIME NOT NULL,
		FOREIGN KEY (worksheet_id) REFERENCES worksheets(id)
	);

	CREATE INDEX IF NOT EXISTS idx_submissions_worksheet ON submissions(worksheet_id, id);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.SetMetadata("schema_version", SchemaVersion)
}

// SaveWorksheet stores a worksheet under w.ID. Saving an existing id replaces
// its content but keeps its position in ListWorksheetIDs.
func (s *Store) SaveWorksheet(w model.Worksheet) error {
	if w.ID == "" {
		return fmt.Errorf("save worksheet: empty id")
	}
	body, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("encode worksheet %s: %w", w.ID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO worksheets (id, title, theme, difficulty, generated_at, body)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, theme = excluded.theme,
		   difficulty = excluded.difficulty, generated_at = excluded.generated_at, body = excluded.body`,
		w.ID, w.Title, w.Theme, w.Difficulty, w.GeneratedAt, string(body),
	)
	if err != nil {
		return fmt.Errorf("save worksheet %s: %w", w.ID, err)
	}
	return nil
}

// GetWorksheet returns a worksheet by id, or nil if there is none.
func (s *Store) GetWorksheet(id string) (*model.Worksheet, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM worksheets WHERE id = ?`, id).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get worksheet %s: %w", id, err)
	}
	var w model.Worksheet
	if err := json.Unmarshal([]byte(body), &w); err != nil {
		return nil, fmt.Errorf("decode worksheet %s: %w", id, err)
	}
	w.ID = id
	return &w, nil
}

// ListWorksheetIDs returns all worksheet ids in creation order.
func (s *Store) ListWorksheetIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT id FROM worksheets ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddSubmission appends a scored submission. A zero SubmittedAt is set to now.
func (s *Store) AddSubmission(rec SubmissionRecord) (int64, error) {
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now().UTC()
	}
	answers := rec.Answers
	if answers == nil {
		answers = []model.Answer{}
	}
	body, err := json.Marshal(answers)
	if err != nil {
		return 0, fmt.Errorf("encode answers: %w", err)
	}
	res, err := s.db.Exec(
		`INSERT INTO submissions (worksheet_id, name, score, max_score, feedback, computed_by, answers, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.WorksheetID, rec.Name, rec.Score, rec.MaxScore, rec.Feedback, rec.ComputedBy, string(body), rec.SubmittedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("add submission for %s: %w", rec.WorksheetID, err)
	}
	return res.LastInsertId()
}

// ListSubmissions returns the submissions of a worksheet in arrival order.
func (s *Store) ListSubmissions(worksheetID string) ([]SubmissionRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, worksheet_id, name, score, max_score, feedback, computed_by, answers, submitted_at
		 FROM submissions WHERE worksheet_id = ? ORDER BY id`, worksheetID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []SubmissionRecord
	for rows.Next() {
		var r SubmissionRecord
		var answers string
		if err := rows.Scan(&r.ID, &r.WorksheetID, &r.Name, &r.Score, &r.MaxScore, &r.Feedback, &r.ComputedBy, &answers, &r.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
			return nil, fmt.Errorf("decode answers of submission %d: %w", r.ID, err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// WorksheetCount returns the number of stored worksheets.
func (s *Store) WorksheetCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM worksheets`).Scan(&count)
	return count, err
}
