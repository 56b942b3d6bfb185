package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagSource       = flag.String("source", "", "Terrain DEM source id")
	flagExaggeration = flag.Float64("exaggeration", -1, "Terrain exaggeration")
	flagTiles        = flag.String("tiles", "", "DEM tile directory or .mbtiles file for the terrain source")
	flagWidth        = flag.Int("width", 0, "Window width")
	flagHeight       = flag.Int("height", 0, "Window height")
	flagHeadless     = flag.Bool("headless", false, "Render with the headless backend")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Viewer.ShowFPS = true
	}
	if *flagSource != "" {
		cfg.Terrain.Source = *flagSource
	}
	if *flagExaggeration >= 0 {
		cfg.Terrain.Exaggeration = float32(*flagExaggeration)
	}
	if *flagTiles != "" {
		if src, ok := cfg.Source(cfg.Terrain.Source); ok {
			src.Path = *flagTiles
		} else {
			cfg.Sources = append(cfg.Sources, SourceConfig{
				ID:       cfg.Terrain.Source,
				Path:     *flagTiles,
				Encoding: "mapbox",
				Workers:  4,
			})
		}
	}
	if *flagWidth > 0 {
		cfg.Viewer.Width = *flagWidth
	}
	if *flagHeight > 0 {
		cfg.Viewer.Height = *flagHeight
	}
	if *flagHeadless {
		cfg.Viewer.Headless = true
	}
}
