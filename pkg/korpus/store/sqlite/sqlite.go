package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/korpus/pkg/korpus/internalerr"
	"github.com/cognicore/korpus/pkg/korpus/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db     *sql.DB
	tokens map[string]int64
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	s := &sqliteStore{db: db, tokens: make(map[string]int64)}
	if err := s.loadTokens(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	format TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS docs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	stem TEXT NOT NULL,
	metadata_json TEXT NOT NULL,
	text TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tokens (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	token TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS doc_tokens (
	doc_id INTEGER NOT NULL,
	token_id INTEGER NOT NULL,
	weight REAL NOT NULL,
	PRIMARY KEY(doc_id, token_id),
	FOREIGN KEY(doc_id) REFERENCES docs(id) ON DELETE CASCADE,
	FOREIGN KEY(token_id) REFERENCES tokens(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_doc_tokens_token ON doc_tokens(token_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *sqliteStore) loadTokens(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id, token FROM tokens`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var tok string
		if err := rows.Scan(&id, &tok); err != nil {
			return err
		}
		s.tokens[tok] = id
	}
	return rows.Err()
}

// BeginRun records a new run.
func (s *sqliteStore) BeginRun(ctx context.Context, id, format string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, format, created_at) VALUES (?, ?, ?)`,
		id, format, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("begin run %s: %w", id, err)
	}
	return nil
}

// GetRun loads a run by id.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var r store.Run
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, format, created_at FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.Format, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return store.Run{}, fmt.Errorf("run %s: parse created_at: %w", id, err)
	}
	return r, nil
}

// AddDocument inserts a document and returns its id.
func (s *sqliteStore) AddDocument(ctx context.Context, d store.Doc) (int64, error) {
	meta := d.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO docs (stem, metadata_json, text) VALUES (?, ?, ?) RETURNING id`,
		d.Stem, string(metaJSON), d.Text).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert doc %s: %w", d.Stem, err)
	}
	return id, nil
}

// InternToken returns the id of token, inserting it on first sight. Ids
// follow first-seen order starting at 1.
func (s *sqliteStore) InternToken(ctx context.Context, token string) (int64, error) {
	if id, ok := s.tokens[token]; ok {
		return id, nil
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `INSERT INTO tokens (token) VALUES (?) RETURNING id`, token).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert token %q: %w", token, err)
	}
	s.tokens[token] = id
	return id, nil
}

// AddWeights stores the weights of one document in a single transaction.
func (s *sqliteStore) AddWeights(ctx context.Context, docID int64, weights []store.Weight) error {
	if len(weights) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO doc_tokens (doc_id, token_id, weight) VALUES (?, ?, ?)
ON CONFLICT(doc_id, token_id) DO UPDATE SET weight=excluded.weight`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, w := range weights {
		if _, err := stmt.ExecContext(ctx, docID, w.TokenID, w.Weight); err != nil {
			return fmt.Errorf("doc %d token %d: %w", docID, w.TokenID, err)
		}
	}
	return tx.Commit()
}

// GetDoc retrieves a document and its terms, ordered by token id.
func (s *sqliteStore) GetDoc(ctx context.Context, id int64) (store.Doc, error) {
	d := store.Doc{ID: id}
	var metaJSON string
	err := s.db.QueryRowContext(ctx, `SELECT stem, metadata_json, text FROM docs WHERE id = ?`, id).
		Scan(&d.Stem, &metaJSON, &d.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Doc{}, fmt.Errorf("doc %d: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Doc{}, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &d.Metadata); err != nil {
		return store.Doc{}, fmt.Errorf("doc %d: decode metadata: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT t.token, dt.weight
FROM doc_tokens dt
JOIN tokens t ON t.id = dt.token_id
WHERE dt.doc_id = ?
ORDER BY t.id`, id)
	if err != nil {
		return store.Doc{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var term store.Term
		if err := rows.Scan(&term.Token, &term.Weight); err != nil {
			return store.Doc{}, err
		}
		d.Terms = append(d.Terms, term)
	}
	return d, rows.Err()
}

// DocCount returns the number of stored documents.
func (s *sqliteStore) DocCount(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM docs`)
}

// TokenCount returns the number of distinct tokens.
func (s *sqliteStore) TokenCount(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM tokens`)
}

func (s *sqliteStore) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
