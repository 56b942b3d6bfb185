package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Faultbox/relief/pkg/tile"
)

// MBTiles stores rows in TMS order: row 0 is the southern edge.
func tmsRow(id tile.ID) uint32 {
	return (1<<id.Z - 1) - id.Y
}

// MBTilesStore reads tiles from an MBTiles SQLite archive.
type MBTilesStore struct {
	db *sql.DB
}

// OpenMBTiles opens an existing archive read-only.
func OpenMBTiles(path string) (*MBTilesStore, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open mbtiles: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open mbtiles %s: %w", path, err)
	}
	return &MBTilesStore{db: db}, nil
}

// Metadata returns the archive's metadata table.
func (s *MBTilesStore) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, value FROM metadata")
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		meta[name] = value
	}
	return meta, rows.Err()
}

// List implements Store.
func (s *MBTilesStore) List(ctx context.Context) ([]tile.ID, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT zoom_level, tile_column, tile_row FROM tiles")
	if err != nil {
		return nil, fmt.Errorf("list tiles: %w", err)
	}
	defer rows.Close()

	var ids []tile.ID
	for rows.Next() {
		var z, x, row int64
		if err := rows.Scan(&z, &x, &row); err != nil {
			return nil, err
		}
		if z < 0 || z > tile.MaxZoom || x < 0 || row < 0 || row >= 1<<z {
			continue
		}
		id := tile.New(uint8(z), uint32(x), uint32((1<<z-1)-row))
		if id.Valid() {
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}

// Read implements Store.
func (s *MBTilesStore) Read(ctx context.Context, id tile.ID) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?",
		id.Z, id.X, tmsRow(id)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrTileNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return data, nil
}

// Close implements Store.
func (s *MBTilesStore) Close() error { return s.db.Close() }

// MBTilesWriter creates an MBTiles archive.
type MBTilesWriter struct {
	db   *sql.DB
	tx   *sql.Tx
	stmt *sql.Stmt
}

// CreateMBTiles creates (or opens) an archive at path and writes meta.
// Tiles are buffered in one transaction until Close.
func CreateMBTiles(path string, meta map[string]string) (*MBTilesWriter, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("create mbtiles: %w", err)
	}
	w := &MBTilesWriter{db: db}
	if err := w.init(meta); err != nil {
		db.Close()
		return nil, fmt.Errorf("create mbtiles %s: %w", path, err)
	}
	return w, nil
}

func (w *MBTilesWriter) init(meta map[string]string) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS metadata (
			name TEXT PRIMARY KEY,
			value TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER,
			tile_column INTEGER,
			tile_row INTEGER,
			tile_data BLOB,
			PRIMARY KEY (zoom_level, tile_column, tile_row)
		)`,
	}
	for _, schema := range schemas {
		if _, err := w.db.Exec(schema); err != nil {
			return err
		}
	}

	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	w.tx, w.stmt = tx, stmt
	return nil
}

// Put stores the encoded image for id.
func (w *MBTilesWriter) Put(id tile.ID, data []byte) error {
	if _, err := w.stmt.Exec(id.Z, id.X, tmsRow(id), data); err != nil {
		return fmt.Errorf("put %s: %w", id, err)
	}
	return nil
}

// Close commits the buffered tiles and closes the archive.
func (w *MBTilesWriter) Close() error {
	w.stmt.Close()
	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		return fmt.Errorf("commit tiles: %w", err)
	}
	return w.db.Close()
}
