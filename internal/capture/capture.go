// Package capture turns page screenshots into files on disk: a scaled PNG
// of the filled form, or a short before/after GIF.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nfnt/resize"
)

// ErrNoFrames is returned when there is nothing to write.
var ErrNoFrames = errors.New("capture: no frames")

// Options configures output.
type Options struct {
	MaxWidth uint // output width; 800 when zero. Smaller frames are not upscaled.
	HoldMS   int  // GIF delay per frame in milliseconds; 1500 when zero
}

func (o *Options) defaults() {
	if o.MaxWidth == 0 {
		o.MaxWidth = 800
	}
	if o.HoldMS == 0 {
		o.HoldMS = 1500
	}
}

// Decode parses PNG screenshots as returned by the browser.
func Decode(shots ...[]byte) ([]image.Image, error) {
	out := make([]image.Image, 0, len(shots))
	for i, data := range shots {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("capture: decode frame %d: %w", i, err)
		}
		out = append(out, img)
	}
	return out, nil
}

// Save writes frames to path and returns the file size. A .gif path gets
// every frame as an animation; anything else gets the last frame as PNG.
func Save(frames []image.Image, path string, opts Options) (int64, error) {
	if len(frames) == 0 {
		return 0, ErrNoFrames
	}
	opts.defaults()

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}

	size, err := write(f, frames, path, opts)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("capture: close %s: %w", path, cerr)
	}
	if err != nil {
		// Never leave a truncated image behind.
		_ = os.Remove(path)
		return 0, err
	}
	return size, nil
}

func write(f *os.File, frames []image.Image, path string, opts Options) (int64, error) {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".gif") {
		err = encodeGIF(f, frames, opts)
	} else {
		err = png.Encode(f, scale(frames[len(frames)-1], opts.MaxWidth))
	}
	if err != nil {
		return 0, fmt.Errorf("capture: encode %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("capture: %w", err)
	}
	return info.Size(), nil
}

// scale fits img to maxWidth keeping its aspect ratio.
func scale(img image.Image, maxWidth uint) image.Image {
	if uint(img.Bounds().Dx()) <= maxWidth {
		return img
	}
	// Zero height keeps the aspect ratio.
	return resize.Resize(maxWidth, 0, img, resize.Lanczos3)
}

func encodeGIF(f *os.File, frames []image.Image, opts Options) error {
	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: 0,
	}

	// Delay is in 100ths of a second.
	delay := opts.HoldMS / 10
	palette := paletteOf(frames[0])

	for i, frame := range frames {
		scaled := scale(frame, opts.MaxWidth)
		paletted := image.NewPaletted(scaled.Bounds(), palette)
		draw.FloydSteinberg.Draw(paletted, scaled.Bounds(), scaled, image.Point{})
		g.Image[i] = paletted
		g.Delay[i] = delay
	}
	return gif.EncodeAll(f, g)
}

// paletteOf builds a 256-colour palette from the most frequent colours of
// a sample of img's pixels, padded with greys.
func paletteOf(img image.Image) color.Palette {
	const step = 4

	b := img.Bounds()
	freq := make(map[color.RGBA]int)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			freq[c]++
		}
	}

	colors := make([]color.RGBA, 0, len(freq))
	for c := range freq {
		colors = append(colors, c)
	}
	sort.Slice(colors, func(i, j int) bool {
		if freq[colors[i]] != freq[colors[j]] {
			return freq[colors[i]] > freq[colors[j]]
		}
		return rgbaLess(colors[i], colors[j])
	})

	palette := make(color.Palette, 0, 256)
	palette = append(palette, color.RGBA{})
	for _, c := range colors {
		if len(palette) == 256 {
			break
		}
		palette = append(palette, c)
	}
	for len(palette) < 256 {
		v := uint8(len(palette))
		palette = append(palette, color.RGBA{v, v, v, 255})
	}
	return palette
}

func rgbaLess(a, b color.RGBA) bool {
	if a.R != b.R {
		return a.R < b.R
	}
	if a.G != b.G {
		return a.G < b.G
	}
	if a.B != b.B {
		return a.B < b.B
	}
	return a.A < b.A
}
