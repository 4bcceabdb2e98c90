package fingerprint

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// makePatternPNG creates test images with distinct patterns.
func makePatternPNG(pattern int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 128, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			var c color.RGBA
			switch pattern {
			case 0: // solid gray
				c = color.RGBA{R: 128, G: 128, B: 128, A: 255}
			case 1: // checkerboard
				if (x/16+y/16)%2 == 0 {
					c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
				} else {
					c = color.RGBA{R: 0, G: 0, B: 0, A: 255}
				}
			case 2: // horizontal gradient
				c = color.RGBA{R: uint8(x * 2), G: 0, B: uint8(255 - x*2), A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func TestFromBytesDeterministic(t *testing.T) {
	data := makePatternPNG(1)

	fp1, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	fp2, err := FromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	if fp1 != fp2 {
		t.Errorf("same input produced different fingerprints: %v vs %v", fp1, fp2)
	}
}

func TestFromBytesDistinctPatterns(t *testing.T) {
	fp1, err := FromBytes(makePatternPNG(1))
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	fp2, err := FromBytes(makePatternPNG(2))
	if err != nil {
		t.Fatalf("FromBytes error: %v", err)
	}
	if fp1 == fp2 {
		t.Error("visually distinct frames should fingerprint differently")
	}
}

func TestFromBytesInvalidData(t *testing.T) {
	if _, err := FromBytes([]byte("not an image")); err == nil {
		t.Error("expected error for undecodable data")
	}
}

func TestFingerprintString(t *testing.T) {
	fp := Fingerprint(0xdeadbeef)
	if fp.String() != "00000000deadbeef" {
		t.Errorf("String() = %q, want %q", fp.String(), "00000000deadbeef")
	}
}
