// Package codec decodes source rasters, resizes them and encodes WebP outputs.
package codec

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"assetopt/internal/domain"
)

type OrientationReader interface {
	Orientation(ctx context.Context, path string) (int, error)
}

type AtomicWriter interface {
	CreateAtomic(path string, fill func(w io.Writer) error) error
}

type Codec struct {
	FS AtomicWriter
	// Orientation is optional; without it JPEGs are used as stored.
	Orientation OrientationReader
}

// FitWidth returns the output width for a source of sourceWidth pixels and a
// target of targetWidth pixels. Images are never enlarged.
func FitWidth(sourceWidth, targetWidth int) int {
	if targetWidth <= 0 || sourceWidth <= targetWidth {
		return sourceWidth
	}
	return targetWidth
}

// Dimensions returns the display size of path, after EXIF orientation.
func (c Codec) Dimensions(ctx context.Context, path string) (int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, fmt.Errorf("decode config: %w", err)
	}
	if swapsAxes(c.orientation(ctx, path)) {
		return cfg.Height, cfg.Width, nil
	}
	return cfg.Width, cfg.Height, nil
}

// Encode writes src to dst as WebP, at most width pixels wide.
func (c Codec) Encode(ctx context.Context, src, dst string, width, quality int) (domain.Output, error) {
	if c.FS == nil {
		return domain.Output{}, fmt.Errorf("codec requires FS")
	}
	select {
	case <-ctx.Done():
		return domain.Output{}, ctx.Err()
	default:
	}

	img, err := c.load(ctx, src)
	if err != nil {
		return domain.Output{}, err
	}

	bounds := img.Bounds()
	target := FitWidth(bounds.Dx(), width)
	if target < bounds.Dx() {
		// A zero height keeps the aspect ratio.
		img = resize.Resize(uint(target), 0, img, resize.Lanczos3)
	}

	var written int64
	err = c.FS.CreateAtomic(dst, func(w io.Writer) error {
		counter := &countingWriter{w: w}
		if err := webp.Encode(counter, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return fmt.Errorf("encode webp: %w", err)
		}
		written = counter.n
		return nil
	})
	if err != nil {
		return domain.Output{}, err
	}

	out := img.Bounds()
	return domain.Output{
		Path:   dst,
		Format: domain.OutputFormat,
		Width:  out.Dx(),
		Height: out.Dy(),
		Bytes:  written,
	}, nil
}

func (c Codec) load(ctx context.Context, path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return applyOrientation(img, c.orientation(ctx, path)), nil
}

func (c Codec) orientation(ctx context.Context, path string) int {
	if c.Orientation == nil {
		return 1
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
	default:
		return 1
	}
	value, err := c.Orientation.Orientation(ctx, path)
	if err != nil {
		return 1
	}
	return value
}

func swapsAxes(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
