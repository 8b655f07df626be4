package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test PNG: %v", err)
	}
	return buf.Bytes()
}

func TestProcessOutputsJPEG(t *testing.T) {
	out, err := Process(encodePNG(t, 100, 50))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not valid JPEG: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("small image should keep its size, got %v", img.Bounds())
	}
}

func TestProcessDownscalesLargeImages(t *testing.T) {
	out, err := Process(encodePNG(t, 2048, 1024))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	if img.Bounds().Dx() != MaxDimension {
		t.Errorf("expected width %d, got %d", MaxDimension, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != MaxDimension/2 {
		t.Errorf("expected aspect ratio preserved (height %d), got %d", MaxDimension/2, img.Bounds().Dy())
	}
}

func TestProcessRejectsNonImages(t *testing.T) {
	if _, err := Process([]byte("definitely not an image")); err == nil {
		t.Error("expected non-image data to be rejected")
	}
}
