package app

import (
	"context"
	"testing"

	appErrors "assetopt/internal/errors"
)

func TestVariantGeneratorSkipsWidthsAboveSource(t *testing.T) {
	src := "/src/hero.jpg"
	fs := newMockFS(map[string]string{src: "pixels"})
	codec := &mockCodec{fs: fs, widths: map[string]int{src: 1400}}

	result, err := VariantGenerator{Codec: codec}.Generate(context.Background(), src, "/dest/work/acme/acme-hero")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Written) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(result.Written))
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != 1920 {
		t.Fatalf("expected 1920 to be skipped, got %v", result.Skipped)
	}

	got, ok := fs.read("/dest/work/acme/acme-hero-1400w.webp")
	if !ok {
		t.Fatalf("expected 1400w variant")
	}
	if got != "webp:pixels:1400:80" {
		t.Fatalf("unexpected variant payload %q", got)
	}
}

func TestVariantGeneratorReportsDecodeFailure(t *testing.T) {
	src := "/src/broken.jpg"
	fs := newMockFS(map[string]string{src: "corrupt"})

	_, err := VariantGenerator{Codec: &mockCodec{fs: fs}}.Generate(context.Background(), src, "/dest/broken")
	if appErrors.KindOf(err) != appErrors.CodecFailure {
		t.Fatalf("expected codec failure, got %v", err)
	}
}

func TestVariantPath(t *testing.T) {
	if got := VariantPath("/dest/work/acme/acme-hero", 640); got != "/dest/work/acme/acme-hero-640w.webp" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestVariantGeneratorGenerateMissing(t *testing.T) {
	src := "/src/hero.jpg"
	fs := newMockFS(map[string]string{
		src:                         "pixels",
		"/dest/acme-hero-640w.webp": "kept",
	})
	codec := &mockCodec{fs: fs, widths: map[string]int{src: 1100}}
	exists := func(path string) bool { _, ok := fs.read(path); return ok }

	result, err := VariantGenerator{Codec: codec}.GenerateMissing(context.Background(), src, "/dest/acme-hero", exists)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Written) != 1 || len(result.Present) != 1 || result.Present[0] != 640 {
		t.Fatalf("expected only 1024w to be written, got %+v", result)
	}
	if got, _ := fs.read("/dest/acme-hero-640w.webp"); got != "kept" {
		t.Fatalf("existing variant must not be rewritten, got %q", got)
	}
}
