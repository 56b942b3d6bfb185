package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Faultbox/relief/pkg/tile"
)

// ErrTileNotFound is returned by Store.Read for ids the store lacks.
var ErrTileNotFound = errors.New("tile not found")

// Store provides encoded DEM tile images.
type Store interface {
	List(ctx context.Context) ([]tile.ID, error)
	Read(ctx context.Context, id tile.ID) ([]byte, error)
	Close() error
}

// OpenStore opens path as an MBTiles archive when it has the .mbtiles
// extension, and as a {z}/{x}/{y} directory otherwise.
func OpenStore(path string) (Store, error) {
	if strings.EqualFold(filepath.Ext(path), ".mbtiles") {
		return OpenMBTiles(path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("open tile store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open tile store: %s is not a directory", path)
	}
	return &DirStore{Root: path}, nil
}

// DirStore reads tiles laid out as Root/{z}/{x}/{y}.{png,webp}.
type DirStore struct {
	Root string
}

var tileExtensions = []string{".png", ".webp"}

// List walks the directory tree for tile images.
func (s *DirStore) List(ctx context.Context) ([]tile.ID, error) {
	var ids []tile.ID
	err := filepath.WalkDir(s.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Root, path)
		if err != nil {
			return err
		}
		if id, ok := parseTilePath(rel); ok {
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Root, err)
	}
	return ids, nil
}

// Read returns the first existing image for id.
func (s *DirStore) Read(ctx context.Context, id tile.ID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := filepath.Join(s.Root, strconv.Itoa(int(id.Z)), strconv.FormatUint(uint64(id.X), 10), strconv.FormatUint(uint64(id.Y), 10))
	for _, ext := range tileExtensions {
		data, err := os.ReadFile(base + ext)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: %w", id, ErrTileNotFound)
}

// Close implements Store.
func (s *DirStore) Close() error { return nil }

// parseTilePath parses "z/x/y.ext" into a tile id.
func parseTilePath(rel string) (tile.ID, bool) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 3 {
		return tile.ID{}, false
	}
	ext := filepath.Ext(parts[2])
	known := false
	for _, e := range tileExtensions {
		if strings.EqualFold(ext, e) {
			known = true
			break
		}
	}
	if !known {
		return tile.ID{}, false
	}

	z, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return tile.ID{}, false
	}
	x, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return tile.ID{}, false
	}
	y, err := strconv.ParseUint(strings.TrimSuffix(parts[2], ext), 10, 32)
	if err != nil {
		return tile.ID{}, false
	}

	id := tile.New(uint8(z), uint32(x), uint32(y))
	return id, id.Valid()
}

// ParseTileID parses "z/x/y".
func ParseTileID(s string) (tile.ID, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return tile.ID{}, fmt.Errorf("tile id %q: want z/x/y", s)
	}
	var vals [3]uint64
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return tile.ID{}, fmt.Errorf("tile id %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[0] > tile.MaxZoom {
		return tile.ID{}, fmt.Errorf("tile id %q: zoom out of range", s)
	}
	id := tile.New(uint8(vals[0]), uint32(vals[1]), uint32(vals[2]))
	if !id.Valid() {
		return tile.ID{}, fmt.Errorf("tile id %q: position outside zoom %d", s, id.Z)
	}
	return id, nil
}
