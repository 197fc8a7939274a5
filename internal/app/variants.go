package app

import (
	"context"
	"errors"
	"fmt"

	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
)

var DefaultVariantWidths = []int{640, 1024, 1400, 1920}

const DefaultVariantQuality = 80

// VariantGenerator renders width variants of one image for srcset use.
type VariantGenerator struct {
	Codec   ImageCodec
	Widths  []int
	Quality int
}

type VariantResult struct {
	Written []domain.Output
	// Skipped lists widths larger than the source; they are not errors.
	Skipped []int
	Present []int
}

// VariantPath is where the variant of the given width is written.
func VariantPath(destinationBase string, width int) string {
	return fmt.Sprintf("%s-%dw.%s", destinationBase, width, domain.OutputFormat)
}

// Generate writes {destinationBase}-{width}w.webp for every configured width
// the source is large enough to fill.
func (g VariantGenerator) Generate(ctx context.Context, sourcePath, destinationBase string) (VariantResult, error) {
	return g.generate(ctx, sourcePath, destinationBase, nil)
}

// GenerateMissing is Generate restricted to the variants for which exists
// reports false. Variants already on disk are listed in Present.
func (g VariantGenerator) GenerateMissing(ctx context.Context, sourcePath, destinationBase string, exists func(path string) bool) (VariantResult, error) {
	return g.generate(ctx, sourcePath, destinationBase, exists)
}

func (g VariantGenerator) generate(ctx context.Context, sourcePath, destinationBase string, exists func(string) bool) (VariantResult, error) {
	var result VariantResult
	if g.Codec == nil {
		return result, errors.New("variant generator requires Codec")
	}

	widths := g.Widths
	if len(widths) == 0 {
		widths = DefaultVariantWidths
	}
	quality := g.Quality
	if quality == 0 {
		quality = DefaultVariantQuality
	}

	sourceWidth, _, err := g.Codec.Dimensions(ctx, sourcePath)
	if err != nil {
		return result, appErrors.Wrap(appErrors.CodecFailure, "dimensions", sourcePath, err)
	}

	for _, width := range widths {
		if width > sourceWidth {
			result.Skipped = append(result.Skipped, width)
			continue
		}
		dst := VariantPath(destinationBase, width)
		if exists != nil && exists(dst) {
			result.Present = append(result.Present, width)
			continue
		}
		out, err := g.Codec.Encode(ctx, sourcePath, dst, width, quality)
		if err != nil {
			if isCanceled(err) {
				return result, err
			}
			return result, appErrors.Wrap(appErrors.CodecFailure, "variant", dst, err)
		}
		result.Written = append(result.Written, out)
	}
	return result, nil
}
