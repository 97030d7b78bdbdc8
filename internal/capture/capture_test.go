package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encode(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSave_PNGScaledToMaxWidth(t *testing.T) {
	frames, err := Decode(encode(t, solid(400, 200, color.White)))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "filled.png")
	size, err := Save(frames, path, Options{MaxWidth: 100})
	require.NoError(t, err)
	assert.Greater(t, size, int64(0))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestSave_PNGNotUpscaled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.png")
	_, err := Save([]image.Image{solid(40, 30, color.Black)}, path, Options{})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
}

func TestSave_GIFKeepsEveryFrame(t *testing.T) {
	frames := []image.Image{
		solid(64, 32, color.White),
		solid(64, 32, color.RGBA{16, 185, 129, 255}),
	}
	path := filepath.Join(t.TempDir(), "fill.GIF")
	_, err := Save(frames, path, Options{HoldMS: 500})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 2)
	assert.Equal(t, []int{50, 50}, g.Delay)
}

func TestSave_NoFrames(t *testing.T) {
	_, err := Save(nil, filepath.Join(t.TempDir(), "x.png"), Options{})
	assert.ErrorIs(t, err, ErrNoFrames)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte("not a png"))
	assert.Error(t, err)
}

func TestPaletteOf_MostFrequentFirst(t *testing.T) {
	p := paletteOf(solid(8, 8, color.RGBA{1, 2, 3, 255}))
	require.Len(t, p, 256)
	assert.Equal(t, color.RGBA{}, p[0])
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, p[1])
}

func TestSave_EncodeFailureLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.png")
	_, err := Save([]image.Image{image.NewRGBA(image.Rect(0, 0, 0, 0))}, path, Options{})
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}
