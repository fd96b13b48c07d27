package registry

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/todmy/doc-checker/pkg/models"
)

// MemoryDSN keeps the registry for the lifetime of the process only
const MemoryDSN = ":memory:"

const migration = `
CREATE TABLE IF NOT EXISTS collections (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	vector_store_id TEXT NOT NULL,
	is_default      INTEGER NOT NULL DEFAULT 0,
	enabled         INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS documents (
	id             TEXT PRIMARY KEY,
	collection_id  TEXT NOT NULL REFERENCES collections(id),
	name           TEXT NOT NULL,
	size           INTEGER NOT NULL DEFAULT 0,
	uploaded_at    TEXT NOT NULL,
	remote_file_id TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	enabled        INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_documents_collection_id ON documents(collection_id);
`

// SQLStore implements Store on database/sql. Rows come back in insertion order.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Open opens a SQLite database and creates the schema. The pool is limited
// to one connection so an in-memory database is shared by every call.
func Open(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "registry: open")
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables if they do not exist
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "registry: migrate")
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// List returns every collection with its documents
func (s *SQLStore) List(ctx context.Context) ([]models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, vector_store_id, is_default, enabled
		FROM collections
		ORDER BY rowid
	`)
	if err != nil {
		return nil, eris.Wrap(err, "registry: list collections")
	}

	collections := []models.Collection{}
	index := map[string]int{}
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.VectorStoreID, &c.IsDefault, &c.Enabled); err != nil {
			rows.Close()
			return nil, eris.Wrap(err, "registry: scan collection")
		}
		c.Documents = []models.Document{}
		index[c.ID] = len(collections)
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, eris.Wrap(err, "registry: list collections")
	}
	rows.Close()

	docs, err := s.queryDocuments(ctx, `
		SELECT collection_id, id, name, size, uploaded_at, remote_file_id, status, enabled
		FROM documents
		ORDER BY rowid
	`)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if i, ok := index[d.collectionID]; ok {
			collections[i].Documents = append(collections[i].Documents, d.Document)
		}
	}

	return collections, nil
}

// Get returns one collection with its documents
func (s *SQLStore) Get(ctx context.Context, collectionID string) (*models.Collection, error) {
	c := &models.Collection{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, vector_store_id, is_default, enabled
		FROM collections
		WHERE id = ?
	`, collectionID).Scan(&c.ID, &c.Name, &c.Description, &c.VectorStoreID, &c.IsDefault, &c.Enabled)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "registry: get collection")
	}

	docs, err := s.queryDocuments(ctx, `
		SELECT collection_id, id, name, size, uploaded_at, remote_file_id, status, enabled
		FROM documents
		WHERE collection_id = ?
		ORDER BY rowid
	`, collectionID)
	if err != nil {
		return nil, err
	}
	c.Documents = make([]models.Document, 0, len(docs))
	for _, d := range docs {
		c.Documents = append(c.Documents, d.Document)
	}
	return c, nil
}

// EnabledVectorStoreIDs returns the remote IDs of enabled collections in order
func (s *SQLStore) EnabledVectorStoreIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT vector_store_id
		FROM collections
		WHERE enabled = 1
		ORDER BY rowid
	`)
	if err != nil {
		return nil, eris.Wrap(err, "registry: enabled vector stores")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "registry: scan vector store id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "registry: enabled vector stores")
}

// AddCollection inserts a collection and its initial documents
func (s *SQLStore) AddCollection(ctx context.Context, c *models.Collection) error {
	if c.ID == "" {
		c.ID = "vs-" + uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "registry: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO collections (id, name, description, vector_store_id, is_default, enabled)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Description, c.VectorStoreID, c.IsDefault, c.Enabled)
	if err != nil {
		return eris.Wrapf(err, "registry: insert collection %s", c.ID)
	}

	for i := range c.Documents {
		if err := insertDocument(ctx, tx, c.ID, &c.Documents[i]); err != nil {
			return err
		}
	}

	return eris.Wrap(tx.Commit(), "registry: commit")
}

// AddDocument appends a document to an existing collection
func (s *SQLStore) AddDocument(ctx context.Context, collectionID string, doc *models.Document) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM collections WHERE id = ?`, collectionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return eris.Wrap(err, "registry: lookup collection")
	}

	return insertDocument(ctx, s.db, collectionID, doc)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertDocument(ctx context.Context, db execer, collectionID string, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = "doc-" + uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO documents (id, collection_id, name, size, uploaded_at, remote_file_id, status, enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, collectionID, doc.Name, doc.Size, doc.UploadedAt.Format(time.RFC3339Nano), doc.RemoteFileID, string(doc.Status), doc.Enabled)
	return eris.Wrapf(err, "registry: insert document %s", doc.ID)
}

// UpdateDocumentStatus sets the status; a non-empty remoteFileID is stored too
func (s *SQLStore) UpdateDocumentStatus(ctx context.Context, collectionID, docID string, status models.DocumentStatus, remoteFileID string) error {
	return s.execOne(ctx, "update document status", `
		UPDATE documents
		SET status = ?, remote_file_id = CASE WHEN ? = '' THEN remote_file_id ELSE ? END
		WHERE id = ? AND collection_id = ?
	`, string(status), remoteFileID, remoteFileID, docID, collectionID)
}

// ToggleCollection flips the enabled flag of a collection
func (s *SQLStore) ToggleCollection(ctx context.Context, collectionID string) error {
	return s.execOne(ctx, "toggle collection", `
		UPDATE collections SET enabled = 1 - enabled WHERE id = ?
	`, collectionID)
}

// ToggleDocument flips the enabled flag of a document
func (s *SQLStore) ToggleDocument(ctx context.Context, collectionID, docID string) error {
	return s.execOne(ctx, "toggle document", `
		UPDATE documents SET enabled = 1 - enabled WHERE id = ? AND collection_id = ?
	`, docID, collectionID)
}

// RemoveDocument deletes a document from a collection
func (s *SQLStore) RemoveDocument(ctx context.Context, collectionID, docID string) error {
	return s.execOne(ctx, "remove document", `
		DELETE FROM documents WHERE id = ? AND collection_id = ?
	`, docID, collectionID)
}

// RemoveCollection deletes a collection together with its documents
func (s *SQLStore) RemoveCollection(ctx context.Context, collectionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "registry: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection_id = ?`, collectionID); err != nil {
		return eris.Wrap(err, "registry: remove collection documents")
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, collectionID)
	if err != nil {
		return eris.Wrap(err, "registry: remove collection")
	}
	if err := expectOne(res); err != nil {
		return err
	}

	return eris.Wrap(tx.Commit(), "registry: commit")
}

func (s *SQLStore) execOne(ctx context.Context, action, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "registry: %s", action)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "registry: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type collectionDocument struct {
	models.Document
	collectionID string
}

func (s *SQLStore) queryDocuments(ctx context.Context, query string, args ...any) ([]collectionDocument, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "registry: list documents")
	}
	defer rows.Close()

	var docs []collectionDocument
	for rows.Next() {
		var d collectionDocument
		var uploadedAt, status string
		if err := rows.Scan(&d.collectionID, &d.ID, &d.Name, &d.Size, &uploadedAt, &d.RemoteFileID, &status, &d.Enabled); err != nil {
			return nil, eris.Wrap(err, "registry: scan document")
		}
		d.Status = models.DocumentStatus(status)
		if t, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
			d.UploadedAt = t
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "registry: list documents")
}
