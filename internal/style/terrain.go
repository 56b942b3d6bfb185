// Package style holds the terrain section of a map style: an immutable
// configuration value, its JSON conversion, and a change-notifying holder.
package style

// DefaultExaggeration is used when a style omits the exaggeration.
const DefaultExaggeration = 1.0

// TerrainConfig is an immutable terrain configuration snapshot. Edits go
// through the With* methods, which return a new value.
type TerrainConfig struct {
	sourceID     string
	exaggeration float32
}

// NewTerrainConfig returns a configuration for the given DEM source.
func NewTerrainConfig(sourceID string, exaggeration float32) TerrainConfig {
	return TerrainConfig{sourceID: sourceID, exaggeration: exaggeration}
}

// DefaultTerrainConfig has no source, which disables terrain.
func DefaultTerrainConfig() TerrainConfig {
	return TerrainConfig{exaggeration: DefaultExaggeration}
}

// SourceID returns the id of the raster-dem source providing elevation.
func (c TerrainConfig) SourceID() string { return c.sourceID }

// Exaggeration returns the elevation multiplier.
func (c TerrainConfig) Exaggeration() float32 { return c.exaggeration }

// WithSource returns a copy of c using sourceID.
func (c TerrainConfig) WithSource(sourceID string) TerrainConfig {
	c.sourceID = sourceID
	return c
}

// WithExaggeration returns a copy of c using exaggeration.
func (c TerrainConfig) WithExaggeration(exaggeration float32) TerrainConfig {
	c.exaggeration = exaggeration
	return c
}

// Observer is notified whenever a Terrain's configuration is replaced.
type Observer interface {
	OnTerrainChanged(TerrainConfig)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(TerrainConfig)

// OnTerrainChanged calls f.
func (f ObserverFunc) OnTerrainChanged(cfg TerrainConfig) { f(cfg) }

type nopObserver struct{}

func (nopObserver) OnTerrainChanged(TerrainConfig) {}

// Terrain is the style-side owner of the current TerrainConfig.
type Terrain struct {
	config   TerrainConfig
	observer Observer
}

// NewTerrain wraps cfg with a no-op observer.
func NewTerrain(cfg TerrainConfig) *Terrain {
	return &Terrain{config: cfg, observer: nopObserver{}}
}

// SetObserver installs o; nil restores the no-op observer.
func (t *Terrain) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	t.observer = o
}

// Config returns the current snapshot.
func (t *Terrain) Config() TerrainConfig { return t.config }

// Source returns the current DEM source id.
func (t *Terrain) Source() string { return t.config.sourceID }

// SetSource replaces the configuration with one using sourceID.
func (t *Terrain) SetSource(sourceID string) {
	t.Replace(t.config.WithSource(sourceID))
}

// Exaggeration returns the current multiplier.
func (t *Terrain) Exaggeration() float32 { return t.config.exaggeration }

// SetExaggeration replaces the configuration with one using exaggeration.
func (t *Terrain) SetExaggeration(exaggeration float32) {
	t.Replace(t.config.WithExaggeration(exaggeration))
}

// Replace swaps in cfg wholesale and notifies the observer.
func (t *Terrain) Replace(cfg TerrainConfig) {
	t.config = cfg
	t.observer.OnTerrainChanged(cfg)
}
