// Package shot writes captured viewport frames to disk as PNG files, with
// an optional downscaled thumbnail next to each one.
package shot

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/draw"
)

// Writer names and saves shots.
type Writer struct {
	dir    string
	prefix string
	// ThumbWidth is the thumbnail width in pixels; zero disables thumbnails.
	ThumbWidth int

	now func() time.Time
}

// NewWriter creates a writer saving into dir. An empty dir means the
// working directory.
func NewWriter(dir, prefix string) *Writer {
	return &Writer{dir: dir, prefix: prefix, now: time.Now}
}

// Filename returns the path the next shot of camera will be written to.
func (w *Writer) Filename(camera string) string {
	name := fmt.Sprintf("%s_%s_%s.png", w.prefix, camera, w.now().Format("2006-01-02_15-04-05"))
	if w.dir != "" {
		name = filepath.Join(w.dir, name)
	}
	return name
}

// SavePixels saves bottom-up RGBA rows, as read back from OpenGL.
func (w *Writer) SavePixels(camera string, pixels []byte, width, height int) (string, error) {
	if len(pixels) != width*height*4 {
		return "", fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}
	return w.Save(camera, FlipRows(pixels, width, height))
}

// Save writes img and, when enabled, its thumbnail. It returns the path of
// the full size image.
func (w *Writer) Save(camera string, img image.Image) (string, error) {
	if w.dir != "" {
		if err := os.MkdirAll(w.dir, 0755); err != nil {
			return "", fmt.Errorf("creating output dir: %w", err)
		}
	}
	path := w.Filename(camera)
	if err := writePNG(path, img); err != nil {
		return "", err
	}
	if w.ThumbWidth > 0 {
		ext := filepath.Ext(path)
		if err := writePNG(path[:len(path)-len(ext)]+"_thumb"+ext, Thumbnail(img, w.ThumbWidth)); err != nil {
			return path, err
		}
	}
	return path, nil
}

// FlipRows converts bottom-up RGBA rows into a top-down image.
func FlipRows(pixels []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	row := width * 4
	for y := range height {
		src := (height - 1 - y) * row
		copy(img.Pix[y*img.Stride:y*img.Stride+row], pixels[src:src+row])
	}
	return img
}

// Thumbnail scales img to width, keeping the aspect ratio.
func Thumbnail(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	if b.Dx() == 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return f.Close()
}
