package dem

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func TestMapboxDecode(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    float64
	}{
		{"zero", 0, 0, 0, -10000.0},
		{"red unit", 1, 0, 0, -3446.4},
		{"sea level", 1, 134, 160, 0},
		{"max", 255, 255, 255, -10000 + 16777215*0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodingMapbox.Decode(tt.r, tt.g, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Decode(%d,%d,%d) = %f, want %f", tt.r, tt.g, tt.b, got, tt.want)
			}
		})
	}
}

func TestTerrariumDecode(t *testing.T) {
	if got := EncodingTerrarium.Decode(128, 0, 0); got != 0 {
		t.Errorf("Terrarium(128,0,0) = %f, want 0", got)
	}
	if got := EncodingTerrarium.Decode(0, 0, 0); got != -32768 {
		t.Errorf("Terrarium(0,0,0) = %f, want -32768", got)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	for _, meters := range []float64{-10000, -3446.4, 0, 1234.5, 8848.8} {
		r, g, b := Encode(meters)
		if got := EncodingMapbox.Decode(r, g, b); math.Abs(got-meters) > 0.051 {
			t.Errorf("Encode(%f) round trip = %f", meters, got)
		}
	}
}

func TestParseEncoding(t *testing.T) {
	if e, err := ParseEncoding("Terrarium"); err != nil || e != EncodingTerrarium {
		t.Errorf("ParseEncoding(Terrarium) = %v, %v", e, err)
	}
	if e, err := ParseEncoding(""); err != nil || e != EncodingMapbox {
		t.Errorf("ParseEncoding(\"\") = %v, %v", e, err)
	}
	if _, err := ParseEncoding("lerc"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

// gradientData builds a width x height raster whose elevation equals x*100 meters.
func gradientData(t *testing.T, width, height int) *Data {
	t.Helper()
	pixels := make([]byte, width*height*4)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 4
			pixels[i], pixels[i+1], pixels[i+2] = Encode(float64(x) * 100)
			pixels[i+3] = 255
		}
	}
	d, err := NewData(width, height, pixels, EncodingMapbox)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	return d
}

func TestNewDataRejectsBadLength(t *testing.T) {
	if _, err := NewData(2, 2, make([]byte, 15), EncodingMapbox); !errors.Is(err, ErrDimensions) {
		t.Errorf("expected ErrDimensions, got %v", err)
	}
}

func TestSampleBilinear(t *testing.T) {
	d := gradientData(t, 4, 4)

	tests := []struct {
		name string
		u    float64
		want float64
	}{
		{"first texel center", 0.125, 0},
		{"between texel 0 and 1", 0.25, 50},
		{"last texel center", 0.875, 300},
		{"left edge clamps", 0, 0},
		{"outside clamps", 1.2, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Sample(tt.u, 0.5)
			if math.Abs(got-tt.want) > 0.06 {
				t.Errorf("Sample(%f, 0.5) = %f, want %f", tt.u, got, tt.want)
			}
		})
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := gradientData(t, 3, 2).MinMax()
	if math.Abs(lo) > 0.06 || math.Abs(hi-200) > 0.06 {
		t.Errorf("MinMax = (%f, %f), want (0, 200)", lo, hi)
	}
}

func TestDecodePNG(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	r, g, b := Encode(500)
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: r, G: g, B: b, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}

	d, err := DecodeBytes(buf.Bytes(), EncodingMapbox)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if d.Width != 2 || d.Height != 2 {
		t.Errorf("expected 2x2, got %dx%d", d.Width, d.Height)
	}
	if got := d.At(1, 1); math.Abs(got-500) > 0.06 {
		t.Errorf("At(1,1) = %f, want 500", got)
	}
}

func TestDecodeGarbage(t *testing.T) {
	if _, err := DecodeBytes([]byte("not an image"), EncodingMapbox); err == nil {
		t.Error("expected error decoding garbage")
	}
}

func TestMapboxPixelsReencodesTerrarium(t *testing.T) {
	// 1000 m in Terrarium: 1000+32768 = 33768 = 0x83E8
	d, err := NewData(1, 1, []byte{0x83, 0xE8, 0, 255}, EncodingTerrarium)
	if err != nil {
		t.Fatalf("NewData failed: %v", err)
	}
	px := d.MapboxPixels()
	if got := EncodingMapbox.Decode(px[0], px[1], px[2]); math.Abs(got-1000) > 0.05 {
		t.Errorf("re-encoded elevation = %v, want 1000", got)
	}

	m, _ := NewData(1, 1, []byte{1, 2, 3, 255}, EncodingMapbox)
	if &m.MapboxPixels()[0] != &m.Pixels[0] {
		t.Error("Mapbox data should be returned without copying")
	}
}
