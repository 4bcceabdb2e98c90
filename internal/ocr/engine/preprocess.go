package engine

import (
	"bytes"
	"image"
	"image/png"
	"sort"

	"golang.org/x/image/draw"

	apperrors "github.com/screenlens/screenlens/internal/errors"

	_ "image/gif"
	_ "image/jpeg"
)

func decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidImage, "decode capture frame")
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidImage, "encode preprocessed frame")
	}
	return buf.Bytes(), nil
}

func grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}

// otsuThreshold binarizes a grayscale image at the threshold that
// maximizes between-class variance over the intensity histogram.
func otsuThreshold(g *image.Gray) *image.Gray {
	var hist [256]int
	for _, px := range g.Pix {
		hist[px]++
	}
	total := len(g.Pix)
	if total == 0 {
		return g
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var maxVar float64
	threshold := 0
	for i := 0; i < 256; i++ {
		wB += float64(hist[i])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(i) * float64(hist[i])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > maxVar {
			maxVar = between
			threshold = i
		}
	}

	out := image.NewGray(g.Bounds())
	for i, px := range g.Pix {
		if int(px) > threshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// medianDenoise applies a 3x3 median filter. Border pixels are copied
// unchanged.
func medianDenoise(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := image.NewGray(bounds)
	copy(out.Pix, g.Pix)
	if w < 3 || h < 3 {
		return out
	}

	window := make([]byte, 0, 9)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				row := (y+dy)*g.Stride + x - 1
				window = append(window, g.Pix[row], g.Pix[row+1], g.Pix[row+2])
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			out.Pix[y*out.Stride+x] = window[4]
		}
	}
	return out
}

// upscale2x doubles both dimensions with Catmull-Rom resampling, which
// keeps glyph edges smooth enough for recognition on small captures.
func upscale2x(g *image.Gray) *image.Gray {
	bounds := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx()*2, bounds.Dy()*2))
	draw.CatmullRom.Scale(out, out.Bounds(), g, bounds, draw.Src, nil)
	return out
}
