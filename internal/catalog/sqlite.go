package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/eugenenazirov/burnvault/internal/catalog/migrations"
)

const timeLayout = time.RFC3339Nano

const selectColumns = `id, title, category, size_gb, media_number, quality, episodes, watched, backed_up, created_at`

// SQLiteCatalog persists items in a SQLite database and holds an exclusive
// lock file next to it for as long as it is open.
type SQLiteCatalog struct {
	opts options
	db   *sql.DB
	lock *flock.Flock
	path string
}

// OpenSQLite opens (creating if needed) the catalog database at path.
func OpenSQLite(path string, opts ...Option) (*SQLiteCatalog, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("catalog path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire catalog lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	c := &SQLiteCatalog{
		opts: buildOptions(opts),
		db:   db,
		lock: lock,
		path: path,
	}
	if err := c.migrate(context.Background(), migrations.FS); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return c, nil
}

// Path returns the database file path.
func (c *SQLiteCatalog) Path() string {
	return c.path
}

// Close closes the database and releases the lock file.
func (c *SQLiteCatalog) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	if unlockErr := c.lock.Unlock(); unlockErr != nil && err == nil {
		err = fmt.Errorf("release catalog lock: %w", unlockErr)
	}
	return err
}

// List returns matching items in insertion order.
func (c *SQLiteCatalog) List(ctx context.Context, filter Filter) ([]MediaItem, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM media_items
         WHERE (? = '' OR category = ?) AND (? = 0 OR backed_up = 0)
         ORDER BY rowid`,
		filter.Category, filter.Category, boolToInt(filter.PendingOnly),
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := make([]MediaItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Get returns the item with the given id.
func (c *SQLiteCatalog) Get(ctx context.Context, id string) (MediaItem, error) {
	row := c.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM media_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return MediaItem{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, err
}

// Add validates and inserts a new item.
func (c *SQLiteCatalog) Add(ctx context.Context, item MediaItem) (MediaItem, error) {
	prepared, err := c.opts.prepare(item)
	if err != nil {
		return MediaItem{}, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return MediaItem{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM media_items WHERE id = ?`, prepared.ID).Scan(&exists)
	if err != nil {
		return MediaItem{}, fmt.Errorf("check duplicate id: %w", err)
	}
	if exists > 0 {
		return MediaItem{}, fmt.Errorf("%w: duplicate id %s", ErrInvalidItem, prepared.ID)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO media_items (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		prepared.ID,
		prepared.Title,
		prepared.Category,
		prepared.SizeGB,
		prepared.MediaNumber,
		prepared.Quality,
		prepared.Episodes,
		boolToInt(prepared.Watched),
		boolToInt(prepared.BackedUp),
		prepared.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return MediaItem{}, fmt.Errorf("insert item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return MediaItem{}, fmt.Errorf("commit item: %w", err)
	}
	return prepared, nil
}

// Update replaces the editable fields of an existing item. CreatedAt is kept.
func (c *SQLiteCatalog) Update(ctx context.Context, item MediaItem) (MediaItem, error) {
	item, err := normalizeUpdate(item)
	if err != nil {
		return MediaItem{}, err
	}

	res, err := c.db.ExecContext(ctx,
		`UPDATE media_items
         SET title = ?, category = ?, size_gb = ?, media_number = ?, quality = ?,
             episodes = ?, watched = ?, backed_up = ?
         WHERE id = ?`,
		item.Title,
		item.Category,
		item.SizeGB,
		item.MediaNumber,
		item.Quality,
		item.Episodes,
		boolToInt(item.Watched),
		boolToInt(item.BackedUp),
		item.ID,
	)
	if err != nil {
		return MediaItem{}, fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return MediaItem{}, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return MediaItem{}, fmt.Errorf("%w: %s", ErrNotFound, item.ID)
	}
	return c.Get(ctx, item.ID)
}

// Delete removes an item.
func (c *SQLiteCatalog) Delete(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM media_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// MarkBackedUp flags every listed item as backed up in a single transaction.
func (c *SQLiteCatalog) MarkBackedUp(ctx context.Context, ids []string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range ids {
		res, err := tx.ExecContext(ctx, `UPDATE media_items SET backed_up = 1 WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("mark %s backed up: %w", id, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit backed up items: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (MediaItem, error) {
	var (
		item      MediaItem
		watched   int
		backedUp  int
		createdAt string
	)
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Category,
		&item.SizeGB,
		&item.MediaNumber,
		&item.Quality,
		&item.Episodes,
		&watched,
		&backedUp,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MediaItem{}, err
		}
		return MediaItem{}, fmt.Errorf("scan item: %w", err)
	}
	item.Watched = watched != 0
	item.BackedUp = backedUp != 0
	item.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return MediaItem{}, fmt.Errorf("parse created_at for %s: %w", item.ID, err)
	}
	return item, nil
}

func (c *SQLiteCatalog) migrate(ctx context.Context, fsys fs.FS) error {
	_, err := c.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_migrations (
            version INTEGER PRIMARY KEY,
            applied_at TEXT NOT NULL
        )`)
	if err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	var current int
	if err := c.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := c.applyMigration(ctx, version, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (c *SQLiteCatalog) applyMigration(ctx context.Context, version int, statements string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, statements); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		version, c.opts.clock().UTC().Format(timeLayout),
	); err != nil {
		return err
	}
	return tx.Commit()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
