package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"sort"
	"strconv"

	"github.com/Faultbox/relief/internal/config"
	"github.com/Faultbox/relief/internal/gfx/headless"
	"github.com/Faultbox/relief/internal/logger"
	"github.com/Faultbox/relief/internal/source"
	"github.com/Faultbox/relief/internal/style"
	"github.com/Faultbox/relief/internal/terrain"
	"github.com/Faultbox/relief/internal/texpool"
	"github.com/Faultbox/relief/internal/viewer"
	"github.com/Faultbox/relief/pkg/dem"
)

// sourceID names the single source the commands build from a store path.
const sourceID = "dem"

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	ctx := context.Background()

	store, err := source.OpenStore(args[0])
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.List(ctx)
	if err != nil {
		return err
	}

	perZoom := make(map[uint8]int)
	for _, id := range ids {
		perZoom[id.Z]++
	}
	zooms := make([]int, 0, len(perZoom))
	for z := range perZoom {
		zooms = append(zooms, int(z))
	}
	sort.Ints(zooms)

	fmt.Fprintf(stdout, "Store: %s\n", args[0])
	fmt.Fprintf(stdout, "Tiles: %d\n", len(ids))
	if len(zooms) > 0 {
		fmt.Fprintf(stdout, "Zooms: %d-%d\n", zooms[0], zooms[len(zooms)-1])
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Tiles by zoom:")
		for _, z := range zooms {
			fmt.Fprintf(stdout, "  z%-3d %d\n", z, perZoom[uint8(z)])
		}
	}

	if mb, ok := store.(*source.MBTilesStore); ok {
		meta, err := mb.Metadata(ctx)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(meta))
		for k := range meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(stdout)
		fmt.Fprintln(stdout, "Metadata:")
		for _, k := range keys {
			fmt.Fprintf(stdout, "  %-12s %s\n", k, meta[k])
		}
	}
	return nil
}

func cmdTile(args []string) error {
	fs := flag.NewFlagSet("tile", flag.ContinueOnError)
	encoding := fs.String("encoding", "mapbox", "DEM encoding (mapbox, terrarium)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 2 {
		return errUsage
	}

	enc, err := dem.ParseEncoding(*encoding)
	if err != nil {
		return err
	}
	id, err := source.ParseTileID(fs.Arg(1))
	if err != nil {
		return err
	}
	store, err := source.OpenStore(fs.Arg(0))
	if err != nil {
		return err
	}
	defer store.Close()

	raw, err := store.Read(context.Background(), id)
	if err != nil {
		return err
	}
	data, err := dem.DecodeBytes(raw, enc)
	if err != nil {
		return fmt.Errorf("decode %s: %w", id, err)
	}

	lo, hi := data.MinMax()
	fmt.Fprintf(stdout, "Tile:      %s\n", id)
	fmt.Fprintf(stdout, "Encoding:  %s\n", enc)
	fmt.Fprintf(stdout, "Size:      %dx%d\n", data.Width, data.Height)
	fmt.Fprintf(stdout, "Elevation: %.1f .. %.1f m\n", lo, hi)
	return nil
}

func cmdSample(args []string) error {
	fs := flag.NewFlagSet("sample", flag.ContinueOnError)
	encoding := fs.String("encoding", "mapbox", "DEM encoding (mapbox, terrarium)")
	exaggeration := fs.Float64("exaggeration", style.DefaultExaggeration, "Terrain exaggeration")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 4 {
		return errUsage
	}

	enc, err := dem.ParseEncoding(*encoding)
	if err != nil {
		return err
	}
	id, err := source.ParseTileID(fs.Arg(1))
	if err != nil {
		return err
	}
	u, err := strconv.ParseFloat(fs.Arg(2), 64)
	if err != nil {
		return fmt.Errorf("u: %w", err)
	}
	v, err := strconv.ParseFloat(fs.Arg(3), 64)
	if err != nil {
		return fmt.Errorf("v: %w", err)
	}

	store, err := source.OpenStore(fs.Arg(0))
	if err != nil {
		return err
	}
	src := source.New(sourceID, store, enc, 0)
	registry := source.NewRegistry()
	if err := registry.Add(src); err != nil {
		store.Close()
		return err
	}
	defer registry.Close()
	if err := src.Load(context.Background()); err != nil {
		return err
	}

	// One update resolves the source; elevation queries need nothing else.
	ctx := headless.New()
	rt := terrain.New(style.NewTerrainConfig(sourceID, float32(*exaggeration)))
	rt.Update(terrain.UpdateParameters{
		Context:       ctx,
		Sources:       registry,
		RenderTargets: texpool.New(ctx, texpool.DefaultTileSize),
	})
	defer rt.Release()

	x, y := u*terrain.Extent, v*terrain.Extent
	fmt.Fprintf(stdout, "Elevation:    %.2f m\n", rt.Elevation(id, x, y))
	fmt.Fprintf(stdout, "Exaggerated:  %.2f m\n", rt.ElevationWithExaggeration(id, x, y))
	return nil
}

func cmdMesh(args []string) error {
	fs := flag.NewFlagSet("mesh", flag.ContinueOnError)
	grid := fs.Int("grid", terrain.MeshSize, "Cells per side")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	for _, layout := range []terrain.Layout{terrain.LayoutPosition, terrain.LayoutPositionTexCoord} {
		mesh, err := terrain.GenerateMesh(*grid, layout)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%-18s vertices=%d indices=%d triangles=%d vertex_bytes=%d index_bytes=%d\n",
			layout, mesh.VertexCount(), mesh.IndexCount(), mesh.IndexCount()/3,
			len(mesh.VertexBytes()), len(mesh.IndexBytes()))
	}
	return nil
}

func cmdFrame(args []string) error {
	fs := flag.NewFlagSet("frame", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file")
	frames := fs.Int("frames", 1, "Frames to render")
	exaggeration := fs.Float64("exaggeration", -1, "Terrain exaggeration")
	logFile := fs.String("log", "", "Write debug logs to this file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 || *frames < 1 {
		return errUsage
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadFile(*configPath); err != nil {
			return err
		}
	}
	if src, ok := cfg.Source(cfg.Terrain.Source); ok {
		src.Path = fs.Arg(0)
	} else {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{
			ID:       cfg.Terrain.Source,
			Path:     fs.Arg(0),
			Encoding: "mapbox",
		})
	}
	if *exaggeration >= 0 {
		cfg.Terrain.Exaggeration = float32(*exaggeration)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if *logFile != "" {
		if err := logger.Init(logger.Config{Level: "debug", LogFile: *logFile}); err != nil {
			return err
		}
		defer logger.Sync()
	}

	res, err := viewer.RunHeadless(context.Background(), cfg, *frames)
	if err != nil {
		return err
	}
	for i, f := range res.Frames {
		fmt.Fprintf(stdout, "frame %d: tiles=%d targets=%d uploaded=%d drawn=%d\n",
			i, f.Tracked, f.Targets, f.Uploaded, f.Drawn)
	}
	fmt.Fprintf(stdout, "textures=%d render_targets=%d buffers=%d drawables=%d draws=%d\n",
		res.GPU.Textures, res.GPU.RenderTargets, res.GPU.Buffers, res.GPU.Drawables, res.GPU.Draws)
	return nil
}

func cmdPack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	encoding := fs.String("encoding", "mapbox", "DEM encoding recorded in the metadata")
	name := fs.String("name", "", "Tileset name (default: output file name)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 2 {
		return errUsage
	}
	if _, err := dem.ParseEncoding(*encoding); err != nil {
		return err
	}
	ctx := context.Background()

	in := &source.DirStore{Root: fs.Arg(0)}
	ids, err := in.List(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no tiles under %s", fs.Arg(0))
	}

	lo, hi := ids[0].Z, ids[0].Z
	for _, id := range ids {
		lo, hi = min(lo, id.Z), max(hi, id.Z)
	}
	title := *name
	if title == "" {
		title = fs.Arg(1)
	}
	first, err := in.Read(ctx, ids[0])
	if err != nil {
		return err
	}
	format := "png"
	if bytes.HasPrefix(first, []byte("RIFF")) {
		format = "webp"
	}

	out, err := source.CreateMBTiles(fs.Arg(1), map[string]string{
		"name":     title,
		"format":   format,
		"type":     "baselayer",
		"encoding": *encoding,
		"minzoom":  strconv.Itoa(int(lo)),
		"maxzoom":  strconv.Itoa(int(hi)),
	})
	if err != nil {
		return err
	}
	for _, id := range ids {
		data, err := in.Read(ctx, id)
		if err != nil {
			out.Close()
			return err
		}
		if err := out.Put(id, data); err != nil {
			out.Close()
			return err
		}
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Packed %d tiles (z%d-z%d) into %s\n", len(ids), lo, hi, fs.Arg(1))
	return nil
}
