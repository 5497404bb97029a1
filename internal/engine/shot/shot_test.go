package shot

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedWriter(dir string) *Writer {
	w := NewWriter(dir, "shot")
	w.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return w
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "shot_cam_2026-03-04_05-06-07.png", fixedWriter("").Filename("cam"))
	assert.Equal(t, filepath.Join("out", "shot_cam_2026-03-04_05-06-07.png"), fixedWriter("out").Filename("cam"))
}

func TestFlipRows(t *testing.T) {
	// 1x2 image, bottom row red then top row blue.
	pixels := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	img := FlipRows(pixels, 1, 2)

	assert.Equal(t, color.RGBA{0, 0, 255, 255}, img.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, img.RGBAAt(0, 1))
}

func TestSavePixelsWritesImageAndThumbnail(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	w := fixedWriter(dir)
	w.ThumbWidth = 2

	pixels := make([]byte, 4*3*4)
	for i := range pixels {
		pixels[i] = 200
	}
	path, err := w.SavePixels("cam", pixels, 4, 3)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())

	thumb, err := os.Open(filepath.Join(dir, "shot_cam_2026-03-04_05-06-07_thumb.png"))
	require.NoError(t, err)
	defer thumb.Close()
	timg, err := png.Decode(thumb)
	require.NoError(t, err)
	assert.Equal(t, 2, timg.Bounds().Dx())
	assert.Equal(t, 1, timg.Bounds().Dy())
}

func TestSavePixelsRejectsShortBuffer(t *testing.T) {
	_, err := fixedWriter(t.TempDir()).SavePixels("cam", make([]byte, 5), 2, 2)
	assert.ErrorContains(t, err, "size mismatch")
}
