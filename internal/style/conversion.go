package style

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Conversion errors, worded as the style validator reports them.
var (
	ErrNotObject            = errors.New("terrain must be an object")
	ErrMissingSource        = errors.New("terrain must have a source")
	ErrSourceNotString      = errors.New("terrain source must be a string")
	ErrExaggerationNumber   = errors.New("terrain exaggeration must be a number")
	ErrNegativeExaggeration = errors.New("terrain exaggeration must not be negative")
)

// ParseTerrain converts the JSON value of a style's "terrain" member.
func ParseTerrain(data []byte) (TerrainConfig, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return TerrainConfig{}, ErrNotObject
	}

	rawSource, ok := obj["source"]
	if !ok {
		return TerrainConfig{}, ErrMissingSource
	}
	var source string
	if isNull(rawSource) || json.Unmarshal(rawSource, &source) != nil {
		return TerrainConfig{}, ErrSourceNotString
	}

	exaggeration := float32(DefaultExaggeration)
	if rawExaggeration, ok := obj["exaggeration"]; ok {
		var v float64
		if isNull(rawExaggeration) || json.Unmarshal(rawExaggeration, &v) != nil {
			return TerrainConfig{}, ErrExaggerationNumber
		}
		if v < 0 {
			return TerrainConfig{}, ErrNegativeExaggeration
		}
		exaggeration = float32(v)
	}

	return NewTerrainConfig(source, exaggeration), nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}

// ParseStyle extracts the terrain section of a full style document. A style
// without a terrain member yields the disabled default configuration.
func ParseStyle(data []byte) (TerrainConfig, error) {
	var doc struct {
		Terrain json.RawMessage `json:"terrain"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return TerrainConfig{}, fmt.Errorf("parsing style: %w", err)
	}
	if len(doc.Terrain) == 0 || string(doc.Terrain) == "null" {
		return DefaultTerrainConfig(), nil
	}
	cfg, err := ParseTerrain(doc.Terrain)
	if err != nil {
		return TerrainConfig{}, fmt.Errorf("parsing style: %w", err)
	}
	return cfg, nil
}

// LoadStyle reads a style file and returns its terrain configuration.
func LoadStyle(path string) (TerrainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TerrainConfig{}, err
	}
	return ParseStyle(data)
}
