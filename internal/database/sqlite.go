package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"journal-go/internal/database/migrations"
	"journal-go/internal/journal"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DBTX is the subset of database/sql used by the queries below.
// Both *sql.DB and *sql.Tx satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteDatabase implements journal.Database using SQLite.
// A value returned to a WithTx callback runs every query inside that
// transaction and has a nil db.
type SQLiteDatabase struct {
	db   *sql.DB
	q    DBTX
	path string
}

// NewSQLiteDatabase opens the database at path and migrates it to the
// latest schema. path can be a file path or ":memory:".
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &SQLiteDatabase{db: db, q: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite database connection with appropriate PRAGMAs.
// The pool is limited to one connection so that ":memory:" databases are shared
// by every query and writes are serialized.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Config operations

func (s *SQLiteDatabase) GetConfig(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.q.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("reading config %q: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteDatabase) PutConfig(ctx context.Context, key string, value []byte) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("writing config %q: %w", key, err)
	}
	return nil
}

// Entry operations

const entryColumns = `id, schema_version,
	title_ciphertext, title_nonce,
	content_ciphertext, content_nonce,
	tags_ciphertext, tags_nonce,
	mood, entry_date, created_at, updated_at`

func (s *SQLiteDatabase) PutEntry(ctx context.Context, rec *journal.EntryRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SchemaVersion,
		rec.Title.Ciphertext, rec.Title.Nonce,
		rec.Content.Ciphertext, rec.Content.Nonce,
		rec.Tags.Ciphertext, rec.Tags.Nonce,
		string(rec.Mood), rec.Date,
		rec.CreatedAt.UnixMilli(), rec.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing entry %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) GetEntry(ctx context.Context, id string) (*journal.EntryRecord, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	rec, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("reading entry %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteDatabase) ListEntries(ctx context.Context) ([]*journal.EntryRecord, error) {
	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		ORDER BY entry_date DESC, created_at DESC, id`)
}

func (s *SQLiteDatabase) ListEntriesByDate(ctx context.Context, from, to string) ([]*journal.EntryRecord, error) {
	return s.queryEntries(ctx, `
		SELECT `+entryColumns+` FROM entries
		WHERE entry_date BETWEEN ? AND ?
		ORDER BY entry_date DESC, created_at DESC, id`,
		from, to)
}

func (s *SQLiteDatabase) DeleteEntry(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteDatabase) queryEntries(ctx context.Context, query string, args ...any) ([]*journal.EntryRecord, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	defer rows.Close()

	var result []*journal.EntryRecord
	for rows.Next() {
		rec, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}
	return result, nil
}

// Photo operations

const photoColumns = `id, schema_version, user_id, entry_id,
	image_ciphertext, image_nonce,
	thumbnail_ciphertext, thumbnail_nonce,
	width, height, size_bytes, format, caption, created_at`

func (s *SQLiteDatabase) PutPhoto(ctx context.Context, rec *journal.PhotoRecord) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT OR REPLACE INTO photos (`+photoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SchemaVersion, rec.UserID, rec.EntryID,
		rec.Image.Ciphertext, rec.Image.Nonce,
		rec.Thumbnail.Ciphertext, rec.Thumbnail.Nonce,
		rec.Width, rec.Height, rec.Size, rec.Format, rec.Caption,
		rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("writing photo %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteDatabase) GetPhoto(ctx context.Context, id string) (*journal.PhotoRecord, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+photoColumns+" FROM photos WHERE id = ?", id)
	rec, err := scanPhoto(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("reading photo %s: %w", id, err)
	}
	return rec, nil
}

func (s *SQLiteDatabase) ListPhotos(ctx context.Context) ([]*journal.PhotoRecord, error) {
	return s.queryPhotos(ctx, "SELECT "+photoColumns+" FROM photos ORDER BY created_at, id")
}

func (s *SQLiteDatabase) ListPhotosByEntry(ctx context.Context, entryID string) ([]*journal.PhotoRecord, error) {
	return s.queryPhotos(ctx, `
		SELECT `+photoColumns+` FROM photos
		WHERE entry_id = ?
		ORDER BY created_at, id`,
		entryID)
}

func (s *SQLiteDatabase) DeletePhoto(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, "DELETE FROM photos WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting photo %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteDatabase) queryPhotos(ctx context.Context, query string, args ...any) ([]*journal.PhotoRecord, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	defer rows.Close()

	var result []*journal.PhotoRecord
	for rows.Next() {
		rec, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning photo: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing photos: %w", err)
	}
	return result, nil
}

// Transactions and maintenance

// WithTx runs fn inside a transaction, committing on success and rolling
// back on error or panic. Calling WithTx on a transactional view runs fn in
// the enclosing transaction.
func (s *SQLiteDatabase) WithTx(ctx context.Context, fn func(tx journal.Database) error) (err error) {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("committing transaction: %w", cerr)
		}
	}()

	return fn(&SQLiteDatabase{q: tx, path: s.path})
}

// Wipe deletes every credential, entry, and photo in one transaction.
func (s *SQLiteDatabase) Wipe(ctx context.Context) error {
	return s.WithTx(ctx, func(tx journal.Database) error {
		q := tx.(*SQLiteDatabase).q
		for _, table := range []string{"photos", "entries", "config"} {
			if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		return nil
	})
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	if s.db == nil {
		return errors.New("cannot check migrations inside a transaction")
	}
	return migrations.CheckDBMigrationStatus(s.db)
}

// Close closes the database connection. Closing a transactional view is a no-op.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*journal.EntryRecord, error) {
	var (
		rec                  journal.EntryRecord
		mood                 string
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&rec.ID, &rec.SchemaVersion,
		&rec.Title.Ciphertext, &rec.Title.Nonce,
		&rec.Content.Ciphertext, &rec.Content.Nonce,
		&rec.Tags.Ciphertext, &rec.Tags.Nonce,
		&mood, &rec.Date, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.Mood = journal.Mood(mood)
	rec.CreatedAt = time.UnixMilli(createdAt)
	rec.UpdatedAt = time.UnixMilli(updatedAt)
	return &rec, nil
}

func scanPhoto(row scanner) (*journal.PhotoRecord, error) {
	var (
		rec       journal.PhotoRecord
		createdAt int64
	)
	err := row.Scan(
		&rec.ID, &rec.SchemaVersion, &rec.UserID, &rec.EntryID,
		&rec.Image.Ciphertext, &rec.Image.Nonce,
		&rec.Thumbnail.Ciphertext, &rec.Thumbnail.Nonce,
		&rec.Width, &rec.Height, &rec.Size, &rec.Format, &rec.Caption,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = time.UnixMilli(createdAt)
	return &rec, nil
}

// Compile-time check that SQLiteDatabase implements journal.Database interface
var _ journal.Database = (*SQLiteDatabase)(nil)
