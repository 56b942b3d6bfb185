package source

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/Faultbox/relief/pkg/dem"
	"github.com/Faultbox/relief/pkg/tile"
)

// encodeTile returns a size x size PNG at a constant elevation.
func encodeTile(t *testing.T, size int, meters float64) []byte {
	t.Helper()
	r, g, b := dem.Encode(meters)
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func writeTile(t *testing.T, root string, id tile.ID, data []byte) {
	t.Helper()
	dir := filepath.Join(root, strconv.Itoa(int(id.Z)), strconv.FormatUint(uint64(id.X), 10))
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, strconv.FormatUint(uint64(id.Y), 10)+".png"), data, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestParseTilePath(t *testing.T) {
	tests := []struct {
		path string
		want tile.ID
		ok   bool
	}{
		{"5/3/3.png", tile.New(5, 3, 3), true},
		{"12/100/200.webp", tile.New(12, 100, 200), true},
		{"5/3/3.PNG", tile.New(5, 3, 3), true},
		{"5/3/3.jpg", tile.ID{}, false},
		{"5/3.png", tile.ID{}, false},
		{"a/3/3.png", tile.ID{}, false},
		{"1/2/0.png", tile.ID{}, false}, // x outside zoom 1
	}
	for _, tt := range tests {
		got, ok := parseTilePath(tt.path)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseTilePath(%q) = %v, %v; want %v, %v", tt.path, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseTileID(t *testing.T) {
	id, err := ParseTileID("5/3/3")
	if err != nil || id != tile.New(5, 3, 3) {
		t.Errorf("ParseTileID = %v, %v", id, err)
	}
	for _, bad := range []string{"", "5/3", "x/1/1", "40/0/0", "2/4/0"} {
		if _, err := ParseTileID(bad); err == nil {
			t.Errorf("ParseTileID(%q) should fail", bad)
		}
	}
}

func TestDirSourceLoad(t *testing.T) {
	root := t.TempDir()
	a, b := tile.New(5, 3, 3), tile.New(4, 1, 1)
	writeTile(t, root, a, encodeTile(t, 4, 250))
	writeTile(t, root, b, encodeTile(t, 4, 500))
	writeTile(t, root, tile.New(5, 0, 0), []byte("not a png"))

	store, err := OpenStore(root)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	src := New("dem", store, dem.EncodingMapbox, 2)
	if err := src.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tiles := src.Tiles()
	if len(tiles) != 3 {
		t.Fatalf("expected 3 tiles, got %d", len(tiles))
	}
	if tiles[0].ID != b {
		t.Errorf("tiles not sorted by zoom: first is %s", tiles[0].ID)
	}
	if src.Loaded() != 2 {
		t.Errorf("expected 2 decoded tiles, got %d", src.Loaded())
	}

	got, ok := src.Tile(a)
	if !ok || !got.Ready() {
		t.Fatalf("tile %s not ready", a)
	}
	if e := got.Data.At(0, 0); math.Abs(e-250) > 0.05 {
		t.Errorf("elevation = %v, want 250", e)
	}

	broken, ok := src.Tile(tile.New(5, 0, 0))
	if !ok || broken.Loaded {
		t.Error("undecodable tile should be listed but not loaded")
	}
	if src.Err(tile.New(5, 0, 0)) == nil {
		t.Error("decode error should be recorded")
	}
}

func TestSourceStart(t *testing.T) {
	root := t.TempDir()
	writeTile(t, root, tile.New(1, 0, 1), encodeTile(t, 2, 10))

	src := New("dem", &DirStore{Root: root}, dem.EncodingMapbox, 0)
	if err := <-src.Start(context.Background()); err != nil {
		t.Fatalf("background load failed: %v", err)
	}
	if src.Loaded() != 1 {
		t.Errorf("expected 1 loaded tile, got %d", src.Loaded())
	}
}

func TestLoadTileMissing(t *testing.T) {
	src := New("dem", &DirStore{Root: t.TempDir()}, dem.EncodingMapbox, 1)
	err := src.LoadTile(context.Background(), tile.New(3, 1, 1))
	if !errors.Is(err, ErrTileNotFound) {
		t.Errorf("expected ErrTileNotFound, got %v", err)
	}
	if tl, ok := src.Tile(tile.New(3, 1, 1)); !ok || tl.Loaded {
		t.Error("missing tile should be registered as pending")
	}
}

func TestLoadCancelled(t *testing.T) {
	root := t.TempDir()
	writeTile(t, root, tile.New(1, 0, 0), encodeTile(t, 2, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New("dem", &DirStore{Root: root}, dem.EncodingMapbox, 1).Load(ctx); err == nil {
		t.Error("expected error from cancelled load")
	}
}

func TestOpenStoreErrors(t *testing.T) {
	if _, err := OpenStore(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	file := filepath.Join(t.TempDir(), "file.png")
	os.WriteFile(file, []byte("x"), 0644)
	if _, err := OpenStore(file); err == nil {
		t.Error("expected error for plain file")
	}
}

func TestMBTilesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dem.mbtiles")
	id := tile.New(3, 2, 1)

	w, err := CreateMBTiles(path, map[string]string{"name": "test", "format": "png"})
	if err != nil {
		t.Fatalf("CreateMBTiles failed: %v", err)
	}
	if err := w.Put(id, encodeTile(t, 4, 1500)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	defer store.Close()

	mb := store.(*MBTilesStore)
	meta, err := mb.Metadata(context.Background())
	if err != nil || meta["name"] != "test" {
		t.Errorf("metadata = %v, %v", meta, err)
	}

	ids, err := store.List(context.Background())
	if err != nil || len(ids) != 1 || ids[0] != id {
		t.Fatalf("List = %v, %v; want [%s]", ids, err, id)
	}
	if _, err := store.Read(context.Background(), tile.New(3, 0, 0)); !errors.Is(err, ErrTileNotFound) {
		t.Errorf("expected ErrTileNotFound, got %v", err)
	}

	src := New("dem", store, dem.EncodingMapbox, 1)
	if err := src.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got, _ := src.Tile(id)
	if !got.Ready() || math.Abs(got.Data.At(1, 1)-1500) > 0.05 {
		t.Error("tile not decoded from archive")
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	src := New("dem", &DirStore{Root: t.TempDir()}, dem.EncodingMapbox, 1)

	if err := reg.Add(src); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := reg.Add(src); err == nil {
		t.Error("duplicate id should be rejected")
	}

	if got, ok := reg.RenderSource("dem"); !ok || got.ID() != "dem" {
		t.Error("RenderSource should find registered source")
	}
	if got, ok := reg.RenderSource("other"); ok || got != nil {
		t.Error("unknown source should not resolve")
	}
	if ids := reg.IDs(); len(ids) != 1 || ids[0] != "dem" {
		t.Errorf("IDs = %v", ids)
	}
	if err := reg.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if len(reg.IDs()) != 0 {
		t.Error("Close should empty the registry")
	}
}
