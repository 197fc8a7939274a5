package domain

import (
	"path/filepath"
	"strings"
)

// Category tells which input tree a source asset was discovered in.
type Category string

const (
	CategoryBrand  Category = "brand"
	CategoryClient Category = "client"
)

// OutputFormat is the extension written for every re-encoded raster asset.
const OutputFormat = "webp"

type SourceAsset struct {
	Path         string
	RelativePath string
	Name         string
	BaseName     string
	Ext          string
	Category     Category
	ClientName   string
}

func NewSourceAsset(path, relativePath string, category Category, clientName string) SourceAsset {
	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(name))

	return SourceAsset{
		Path:         path,
		RelativePath: relativePath,
		Name:         name,
		BaseName:     strings.TrimSuffix(name, filepath.Ext(name)),
		Ext:          ext,
		Category:     category,
		ClientName:   clientName,
	}
}

// IsVector reports whether the asset is resolution independent and must be
// copied instead of re-encoded.
func (a SourceAsset) IsVector() bool {
	return IsVectorExtension(a.Ext)
}

type DestinationAsset struct {
	Path   string
	Format string
}

func IsRasterExtension(ext string) bool {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg":
		return true
	default:
		return false
	}
}

func IsVectorExtension(ext string) bool {
	return strings.ToLower(ext) == ".svg"
}

// IsBrandExtension accepts everything the brand pass picks up: rasters and SVG.
func IsBrandExtension(ext string) bool {
	return IsRasterExtension(ext) || IsVectorExtension(ext)
}

// IsClientExtension accepts rasters only; client folders never carry vectors
// worth publishing.
func IsClientExtension(ext string) bool {
	return IsRasterExtension(ext)
}

// OutputName swaps the extension of name for the re-encoded output format, or
// keeps it for vector passthrough.
func OutputName(name string, passthrough bool) string {
	if passthrough {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + OutputFormat
}
