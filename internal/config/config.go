// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/relief/internal/style"
	"github.com/Faultbox/relief/internal/terrain"
	"github.com/Faultbox/relief/internal/texpool"
	"github.com/Faultbox/relief/pkg/dem"
)

// Config holds all relief settings.
type Config struct {
	Terrain TerrainConfig  `yaml:"terrain"`
	Render  RenderConfig   `yaml:"render"`
	Sources []SourceConfig `yaml:"sources"`
	Viewer  ViewerConfig   `yaml:"viewer"`
	Logging LoggingConfig  `yaml:"logging"`
}

// TerrainConfig holds the terrain style settings.
type TerrainConfig struct {
	Source       string  `yaml:"source"`
	Exaggeration float32 `yaml:"exaggeration"`
	StyleFile    string  `yaml:"style_file"` // Watched style JSON, overrides source/exaggeration
}

// RenderConfig holds render-to-texture and mesh settings.
type RenderConfig struct {
	TileSize int `yaml:"tile_size"` // Render target edge in pixels
	MeshGrid int `yaml:"mesh_grid"` // Cells per side of the terrain mesh
}

// SourceConfig describes one DEM tile source.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Path     string `yaml:"path"`     // {z}/{x}/{y} directory or .mbtiles file
	Encoding string `yaml:"encoding"` // mapbox or terrarium
	Workers  int    `yaml:"workers"`
}

// ViewerConfig holds window and initial camera settings.
type ViewerConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Fullscreen bool    `yaml:"fullscreen"`
	VSync      bool    `yaml:"vsync"`
	Headless   bool    `yaml:"headless"`
	ShowFPS    bool    `yaml:"show_fps"`
	Zoom       uint8   `yaml:"zoom"`
	CenterX    float64 `yaml:"center_x"` // Tile units at Zoom
	CenterY    float64 `yaml:"center_y"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Terrain: TerrainConfig{
			Source:       "dem",
			Exaggeration: style.DefaultExaggeration,
		},
		Render: RenderConfig{
			TileSize: texpool.DefaultTileSize,
			MeshGrid: terrain.MeshSize,
		},
		Sources: []SourceConfig{
			{ID: "dem", Path: "./tiles", Encoding: "mapbox", Workers: 4},
		},
		Viewer: ViewerConfig{
			Width:   1280,
			Height:  720,
			VSync:   true,
			Zoom:    5,
			CenterX: 3.5,
			CenterY: 3.5,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Style returns the terrain style described by the config.
func (c *Config) Style() style.TerrainConfig {
	return style.NewTerrainConfig(c.Terrain.Source, c.Terrain.Exaggeration)
}

// Source returns the source entry with the given id.
func (c *Config) Source(id string) (*SourceConfig, bool) {
	for i := range c.Sources {
		if c.Sources[i].ID == id {
			return &c.Sources[i], true
		}
	}
	return nil, false
}

// Validate checks the config for values that cannot be rendered.
func (c *Config) Validate() error {
	var errs []error
	if c.Terrain.Exaggeration < 0 {
		errs = append(errs, fmt.Errorf("terrain exaggeration must be >= 0, got %g", c.Terrain.Exaggeration))
	}
	if c.Render.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("render tile_size must be positive, got %d", c.Render.TileSize))
	}
	if err := terrain.CheckGridSize(c.Render.MeshGrid); err != nil {
		errs = append(errs, fmt.Errorf("render mesh_grid: %w", err))
	}

	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		switch {
		case s.ID == "":
			errs = append(errs, errors.New("source without id"))
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("duplicate source %q", s.ID))
		}
		seen[s.ID] = true
		if s.Path == "" {
			errs = append(errs, fmt.Errorf("source %q has no path", s.ID))
		}
		if _, err := dem.ParseEncoding(s.Encoding); err != nil {
			errs = append(errs, fmt.Errorf("source %q: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}
