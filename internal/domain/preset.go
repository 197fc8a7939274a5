package domain

import "fmt"

type PresetName string

const (
	PresetThumbnail  PresetName = "thumbnail"
	PresetHero       PresetName = "hero"
	PresetGallery    PresetName = "gallery"
	PresetLogo       PresetName = "logo"
	PresetBackground PresetName = "background"
	PresetIcon       PresetName = "icon"
)

// PresetNames lists every preset in table order.
var PresetNames = []PresetName{
	PresetThumbnail,
	PresetHero,
	PresetGallery,
	PresetLogo,
	PresetBackground,
	PresetIcon,
}

// Preset is a resize target: the output is at most Width pixels wide and
// encoded at Quality.
type Preset struct {
	Name    PresetName
	Width   int
	Quality int
}

func (p Preset) Validate() error {
	if p.Width <= 0 {
		return fmt.Errorf("preset %s: width must be positive, got %d", p.Name, p.Width)
	}
	if p.Quality <= 0 || p.Quality > 100 {
		return fmt.Errorf("preset %s: quality must be in (0, 100], got %d", p.Name, p.Quality)
	}
	return nil
}

type PresetTable map[PresetName]Preset

func DefaultPresets() PresetTable {
	return PresetTable{
		PresetThumbnail:  {Name: PresetThumbnail, Width: 600, Quality: 80},
		PresetHero:       {Name: PresetHero, Width: 1920, Quality: 85},
		PresetGallery:    {Name: PresetGallery, Width: 1200, Quality: 85},
		PresetLogo:       {Name: PresetLogo, Width: 400, Quality: 90},
		PresetBackground: {Name: PresetBackground, Width: 1920, Quality: 80},
		PresetIcon:       {Name: PresetIcon, Width: 128, Quality: 90},
	}
}

// Validate checks that all six presets exist and hold sane values.
func (t PresetTable) Validate() error {
	for _, name := range PresetNames {
		preset, ok := t[name]
		if !ok {
			return fmt.Errorf("preset %s is missing", name)
		}
		if preset.Name != name {
			return fmt.Errorf("preset %s is registered under %s", preset.Name, name)
		}
		if err := preset.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (t PresetTable) Lookup(name PresetName) (Preset, error) {
	preset, ok := t[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return preset, nil
}
