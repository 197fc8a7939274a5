package domain

import (
	"path"
	"path/filepath"
	"strings"
)

type Classification struct {
	Preset       PresetName
	SubDirectory string
	Suffix       string
	Passthrough  bool
}

type rule struct {
	keywords     []string
	preset       PresetName
	subDirectory string
	suffix       string
}

// Evaluated in order, first match wins.
var brandRules = []rule{
	{keywords: []string{"logo"}, preset: PresetLogo, subDirectory: "brand/logos"},
	{keywords: []string{"bg", "background"}, preset: PresetBackground, subDirectory: "backgrounds"},
	{keywords: []string{"relief", "bas"}, preset: PresetGallery, subDirectory: "brand/reliefs"},
}

var brandDefault = rule{preset: PresetBackground, subDirectory: "brand"}

var clientRules = []rule{
	{keywords: []string{"hero", "banner", "widescreen"}, preset: PresetHero, suffix: "-hero"},
	{keywords: []string{"thumb", "mockup 1"}, preset: PresetThumbnail, suffix: "-thumb"},
}

// Classify picks the preset and output location of an asset from its path
// inside the category root. Matching is case-insensitive and every input
// yields a result.
func Classify(asset SourceAsset) Classification {
	subject := strings.ToLower(filepath.ToSlash(asset.RelativePath))
	if subject == "" {
		subject = strings.ToLower(asset.Name)
	}

	if asset.Category == CategoryClient {
		return classifyClient(asset, subject)
	}
	return classifyBrand(asset, subject)
}

func classifyBrand(asset SourceAsset, subject string) Classification {
	matched := matchRule(brandRules, subject, brandDefault)
	return Classification{
		Preset:       matched.preset,
		SubDirectory: matched.subDirectory,
		Passthrough:  asset.IsVector(),
	}
}

func classifyClient(asset SourceAsset, subject string) Classification {
	matched := matchRule(clientRules, subject, rule{preset: PresetGallery})

	suffix := matched.suffix
	if suffix == "" {
		suffix = "-" + Slugify(asset.BaseName, DefaultSlugLength)
	}
	return Classification{
		Preset:       matched.preset,
		SubDirectory: ClientDirectory(asset.ClientName),
		Suffix:       suffix,
	}
}

func matchRule(rules []rule, subject string, fallback rule) rule {
	for _, r := range rules {
		for _, keyword := range r.keywords {
			if strings.Contains(subject, keyword) {
				return r
			}
		}
	}
	return fallback
}

// ClientDirectory is the destination sub-directory of a client's portfolio.
func ClientDirectory(clientName string) string {
	return path.Join("work", Slugify(clientName, DefaultSlugLength))
}
