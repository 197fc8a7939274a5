package exif

import (
	"context"
	"errors"
	"os"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// OrientationNormal is the EXIF value for "no transform needed".
const OrientationNormal = 1

var ErrNoOrientation = errors.New("exif orientation not found")

type Reader struct{}

// Orientation returns the EXIF orientation (1-8) stored in path.
func (Reader) Orientation(ctx context.Context, path string) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	x, err := goexif.Decode(file)
	if err != nil {
		return 0, err
	}

	tag, err := x.Get(goexif.Orientation)
	if err != nil {
		return 0, ErrNoOrientation
	}
	value, err := tag.Int(0)
	if err != nil {
		return 0, err
	}
	if value < 1 || value > 8 {
		return 0, ErrNoOrientation
	}
	return value, nil
}
