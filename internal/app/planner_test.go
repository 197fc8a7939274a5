package app

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
)

var testLayout = Layout{
	SourceRoot:  "/src",
	BrandRoot:   "/src/Design Assets/Brand Assets",
	ClientsRoot: "/src/Design Assets/Clients",
	DestRoot:    "/dest",
}

func newTestPlanner(fs *mockFS) *Planner {
	return &Planner{FS: fs, Layout: testLayout, Presets: domain.DefaultPresets()}
}

func jobBySource(t *testing.T, plan domain.Plan, name string) domain.Job {
	t.Helper()
	for _, job := range plan.Jobs {
		if job.Source.Name == name {
			return job
		}
	}
	t.Fatalf("no job for %s in %d jobs", name, len(plan.Jobs))
	return domain.Job{}
}

func TestPlanBrandClassifiesAndRoutes(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/src/Design Assets/Brand Assets/Primary Logo.PNG":     "a",
		"/src/Design Assets/Brand Assets/Hero BG.jpg":          "b",
		"/src/Design Assets/Brand Assets/Reliefs/north.jpeg":   "c",
		"/src/Design Assets/Brand Assets/palette.png":          "d",
		"/src/Design Assets/Brand Assets/Logos/mark.svg":       "e",
		"/src/Design Assets/Brand Assets/notes.txt":            "f",
		"/src/Design Assets/Brand Assets/Guidelines/guide.pdf": "g",
		"/src/Design Assets/Clients/Acme Co/hero-banner.jpg":   "h",
	})

	plan, err := newTestPlanner(fs).PlanBrand(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Pass != domain.PassBrand {
		t.Fatalf("unexpected pass %s", plan.Pass)
	}
	if len(plan.Jobs) != 5 {
		t.Fatalf("expected 5 jobs, got %d", len(plan.Jobs))
	}

	cases := map[string]string{
		"Primary Logo.PNG": "/dest/brand/logos/Primary Logo.webp",
		"Hero BG.jpg":      "/dest/backgrounds/Hero BG.webp",
		"north.jpeg":       "/dest/brand/reliefs/north.webp",
		"palette.png":      "/dest/brand/palette.webp",
		"mark.svg":         "/dest/brand/logos/mark.svg",
	}
	for name, want := range cases {
		job := jobBySource(t, plan, name)
		if job.Destination.Path != filepath.FromSlash(want) {
			t.Fatalf("%s: expected %s, got %s", name, want, job.Destination.Path)
		}
	}

	svg := jobBySource(t, plan, "mark.svg")
	if !svg.Classification.Passthrough || svg.Destination.Format != "svg" {
		t.Fatalf("expected svg passthrough, got %+v", svg)
	}
	logo := jobBySource(t, plan, "Primary Logo.PNG")
	if logo.Preset.Name != domain.PresetLogo || logo.Destination.Format != domain.OutputFormat {
		t.Fatalf("unexpected logo job: %+v", logo)
	}
	if logo.MappingSource != "Design Assets/Brand Assets/Primary Logo.PNG" {
		t.Fatalf("unexpected mapping source %q", logo.MappingSource)
	}
	if logo.MappingDestination != "brand/logos/Primary Logo.webp" {
		t.Fatalf("unexpected mapping destination %q", logo.MappingDestination)
	}
}

func TestPlanClientsBuildsSlugNames(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/src/Design Assets/Clients/Acme Co/hero-banner.jpg":      "a",
		"/src/Design Assets/Clients/Acme Co/Mockup 1.png":         "b",
		"/src/Design Assets/Clients/Acme Co/screens/Checkout.JPG": "c",
		"/src/Design Assets/Clients/Acme Co/logo.svg":             "d",
		"/src/Design Assets/Clients/Client & Co.!/Widescreen.png": "e",
		"/src/Design Assets/Clients/README.md":                    "f",
	})

	plan, err := newTestPlanner(fs).PlanClients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(plan.Jobs))
	}

	cases := map[string]string{
		"hero-banner.jpg": "/dest/work/acme-co/acme-co-hero.webp",
		"Mockup 1.png":    "/dest/work/acme-co/acme-co-thumb.webp",
		"Checkout.JPG":    "/dest/work/acme-co/acme-co-checkout.webp",
		"Widescreen.png":  "/dest/work/client-co/client-co-hero.webp",
	}
	for name, want := range cases {
		job := jobBySource(t, plan, name)
		if job.Destination.Path != filepath.FromSlash(want) {
			t.Fatalf("%s: expected %s, got %s", name, want, job.Destination.Path)
		}
	}

	hero := jobBySource(t, plan, "hero-banner.jpg")
	if hero.Preset.Width != 1920 || hero.Preset.Quality != 85 {
		t.Fatalf("unexpected hero preset %+v", hero.Preset)
	}
	if hero.Source.ClientName != "Acme Co" {
		t.Fatalf("unexpected client name %q", hero.Source.ClientName)
	}
}

func TestPlanClientsWarnsOnCollidingDestinations(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/src/Design Assets/Clients/Acme/hero.jpg":   "a",
		"/src/Design Assets/Clients/Acme/banner.png": "b",
	})

	plan, err := newTestPlanner(fs).PlanClients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Warnings) != 1 || !strings.Contains(plan.Warnings[0], "acme-hero.webp") {
		t.Fatalf("expected one collision warning, got %v", plan.Warnings)
	}
	for _, job := range plan.Jobs {
		if !job.SharedDestination {
			t.Fatalf("expected %s to be marked as sharing its destination", job.Source.Name)
		}
	}
}

func TestPlanClientsSkipsUnsluggableFolder(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/src/Design Assets/Clients/!!!/photo.jpg": "a",
	})

	plan, err := newTestPlanner(fs).PlanClients(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Jobs) != 0 || len(plan.Warnings) != 1 {
		t.Fatalf("expected folder to be skipped with a warning, got %d jobs %v", len(plan.Jobs), plan.Warnings)
	}
}

func TestPlanMissingRootIsFatal(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/src/Design Assets/Brand Assets/logo.png": "a",
	})
	planner := newTestPlanner(fs)

	_, err := planner.PlanClients(context.Background())
	if err == nil {
		t.Fatalf("expected error for missing clients root")
	}
	if appErrors.KindOf(err) != appErrors.NotFound {
		t.Fatalf("expected not_found, got %s (%v)", appErrors.KindOf(err), err)
	}

	planner.Layout.BrandRoot = "/src/nowhere"
	if _, err := planner.PlanBrand(context.Background()); appErrors.KindOf(err) != appErrors.NotFound {
		t.Fatalf("expected not_found for brand root, got %v", err)
	}
}

func TestPlanOrderIsStable(t *testing.T) {
	fs := newMockFS(map[string]string{
		"/src/Design Assets/Brand Assets/b.png": "b",
		"/src/Design Assets/Brand Assets/a.png": "a",
		"/src/Design Assets/Brand Assets/c.png": "c",
	})
	plan, err := newTestPlanner(fs).PlanBrand(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := []string{plan.Jobs[0].Source.Name, plan.Jobs[1].Source.Name, plan.Jobs[2].Source.Name}
	if strings.Join(got, ",") != "a.png,b.png,c.png" {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestPlanFile(t *testing.T) {
	planner := newTestPlanner(newMockFS(nil))

	job, err := planner.PlanFile("/home/bas/exports/logo-dark.png", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Preset.Name != domain.PresetLogo || job.MappingDestination != "brand/logos/logo-dark.webp" {
		t.Fatalf("unexpected brand job %s -> %s", job.Preset.Name, job.MappingDestination)
	}

	job, err = planner.PlanFile("/src/Design Assets/Clients/Acme Co/Mockup 1.jpg", "Acme Co")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Preset.Name != domain.PresetThumbnail || job.MappingDestination != "work/acme-co/acme-co-thumb.webp" {
		t.Fatalf("unexpected client job %s -> %s", job.Preset.Name, job.MappingDestination)
	}

	if _, err := planner.PlanFile("x.png", "!!!"); appErrors.KindOf(err) != appErrors.InvalidConfig {
		t.Fatalf("expected invalid_config for an unsluggable client, got %v", err)
	}
}
