package dem

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/png" // PNG decoder registration
	"io"
	"os"

	_ "golang.org/x/image/webp" // WebP decoder registration
)

// FromImage converts a decoded image to a DEM raster. Channels are read
// without alpha premultiplication so the packed elevation survives.
func FromImage(img image.Image, enc Encoding) (*Data, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, w*h*4)

	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Stride == w*4 {
		copy(pixels, nrgba.Pix)
		return NewData(w, h, pixels, enc)
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := ((y-bounds.Min.Y)*w + (x - bounds.Min.X)) * 4
			pixels[i] = c.R
			pixels[i+1] = c.G
			pixels[i+2] = c.B
			pixels[i+3] = 255
		}
	}
	return NewData(w, h, pixels, enc)
}

// Decode reads a PNG or WebP DEM tile.
func Decode(r io.Reader, enc Encoding) (*Data, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode DEM image: %w", err)
	}
	d, err := FromImage(img, enc)
	if err != nil {
		return nil, fmt.Errorf("convert %s DEM image: %w", format, err)
	}
	return d, nil
}

// DecodeBytes decodes an in-memory DEM tile.
func DecodeBytes(data []byte, enc Encoding) (*Data, error) {
	return Decode(bytes.NewReader(data), enc)
}

// Load reads and decodes a DEM tile from disk.
func Load(path string, enc Encoding) (*Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, enc)
}

// Encode packs an elevation in meters into Mapbox terrain-RGB bytes,
// rounding to the 0.1 m step. Used to synthesize tiles.
func Encode(meters float64) (r, g, b uint8) {
	v := int64((meters+10000)*10 + 0.5)
	if v < 0 {
		v = 0
	}
	if v > 0xFFFFFF {
		v = 0xFFFFFF
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v)
}
