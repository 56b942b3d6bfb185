// Package dem decodes digital elevation model raster tiles.
//
// A DEM tile stores one elevation sample per pixel, packed into the RGB
// channels of an ordinary image. Two packings are supported: Mapbox
// terrain-RGB and Terrarium.
package dem

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Encoding identifies how elevation is packed into a pixel.
type Encoding int

const (
	// EncodingMapbox is terrain-RGB: -10000 + (R*65536 + G*256 + B) * 0.1.
	EncodingMapbox Encoding = iota
	// EncodingTerrarium is R*256 + G + B/256 - 32768.
	EncodingTerrarium
)

var (
	ErrUnsupportedEncoding = errors.New("unsupported DEM encoding")
	ErrDimensions          = errors.New("DEM pixel data does not match dimensions")
)

// ParseEncoding maps a style/config name to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(name) {
	case "", "mapbox":
		return EncodingMapbox, nil
	case "terrarium":
		return EncodingTerrarium, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}

func (e Encoding) String() string {
	switch e {
	case EncodingMapbox:
		return "mapbox"
	case EncodingTerrarium:
		return "terrarium"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// Decode converts raw channel bytes to meters.
func (e Encoding) Decode(r, g, b uint8) float64 {
	if e == EncodingTerrarium {
		return float64(r)*256 + float64(g) + float64(b)/256 - 32768
	}
	return -10000 + float64(uint32(r)<<16|uint32(g)<<8|uint32(b))*0.1
}

// Data is a decoded DEM raster. Pixels holds Width*Height RGBA texels,
// row-major, top row first, exactly as uploaded to the GPU.
type Data struct {
	Width    int
	Height   int
	Pixels   []byte
	Encoding Encoding
}

// NewData wraps an RGBA buffer, validating its length.
func NewData(width, height int, pixels []byte, enc Encoding) (*Data, error) {
	if width <= 0 || height <= 0 || len(pixels) != width*height*4 {
		return nil, fmt.Errorf("%w: %dx%d with %d bytes", ErrDimensions, width, height, len(pixels))
	}
	return &Data{Width: width, Height: height, Pixels: pixels, Encoding: enc}, nil
}

// At returns the elevation in meters of the texel at (x, y). Coordinates
// outside the raster are clamped to its edge.
func (d *Data) At(x, y int) float64 {
	x = clampi(x, 0, d.Width-1)
	y = clampi(y, 0, d.Height-1)
	i := (y*d.Width + x) * 4
	return d.Encoding.Decode(d.Pixels[i], d.Pixels[i+1], d.Pixels[i+2])
}

// Sample returns the bilinearly interpolated elevation at normalized
// coordinates (u, v) in [0, 1], with texel centers at (i+0.5)/size. Inputs
// slightly outside the range are clamped, matching clamp-to-edge sampling.
func (d *Data) Sample(u, v float64) float64 {
	fx := clampf(u, 0, 1)*float64(d.Width) - 0.5
	fy := clampf(v, 0, 1)*float64(d.Height) - 0.5
	fx = clampf(fx, 0, float64(d.Width-1))
	fy = clampf(fy, 0, float64(d.Height-1))

	x0, y0 := int(fx), int(fy)
	tx, ty := fx-float64(x0), fy-float64(y0)

	top := d.At(x0, y0)*(1-tx) + d.At(x0+1, y0)*tx
	bottom := d.At(x0, y0+1)*(1-tx) + d.At(x0+1, y0+1)*tx
	return top*(1-ty) + bottom*ty
}

// MinMax returns the lowest and highest elevation in the raster.
func (d *Data) MinMax() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			e := d.At(x, y)
			lo = math.Min(lo, e)
			hi = math.Max(hi, e)
		}
	}
	return lo, hi
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MapboxPixels returns the raster re-encoded as Mapbox terrain-RGB. Mapbox
// rasters are returned as is; the caller must not modify the result.
func (d *Data) MapboxPixels() []byte {
	if d.Encoding == EncodingMapbox {
		return d.Pixels
	}
	out := make([]byte, len(d.Pixels))
	for i := 0; i < len(d.Pixels); i += 4 {
		r, g, b := Encode(d.Encoding.Decode(d.Pixels[i], d.Pixels[i+1], d.Pixels[i+2]))
		out[i], out[i+1], out[i+2], out[i+3] = r, g, b, 255
	}
	return out
}
