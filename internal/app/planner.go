package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
	"assetopt/internal/logging"
)

// Layout holds the resolved input and output roots of one run.
type Layout struct {
	SourceRoot  string
	BrandRoot   string
	ClientsRoot string
	DestRoot    string
}

type Planner struct {
	FS      FileSystem
	Layout  Layout
	Presets domain.PresetTable
	Logger  logging.Logger
}

// PlanBrand walks the brand root recursively and plans one job per raster or
// SVG file found.
func (p *Planner) PlanBrand(ctx context.Context) (domain.Plan, error) {
	if err := p.check(); err != nil {
		return domain.Plan{}, err
	}
	stop := p.Logger.Measure("Planning brand pass")
	defer stop()

	root := p.Layout.BrandRoot
	var jobs []domain.Job

	err := p.FS.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !domain.IsBrandExtension(filepath.Ext(d.Name())) {
			return nil
		}

		job, err := p.brandJob(path, relativeTo(root, path))
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return domain.Plan{}, enumerationError(root, err)
	}

	return p.finish(domain.PassBrand, jobs, nil), nil
}

// PlanClients treats every directory directly under the clients root as one
// client and plans a job per raster file inside it.
func (p *Planner) PlanClients(ctx context.Context) (domain.Plan, error) {
	if err := p.check(); err != nil {
		return domain.Plan{}, err
	}
	stop := p.Logger.Measure("Planning clients pass")
	defer stop()

	root := p.Layout.ClientsRoot
	entries, err := p.FS.ReadDir(root)
	if err != nil {
		return domain.Plan{}, enumerationError(root, err)
	}

	var jobs []domain.Job
	var warnings []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		client := entry.Name()
		slug := domain.Slugify(client, domain.DefaultSlugLength)
		if slug == "" {
			warnings = append(warnings, fmt.Sprintf("client folder %q has no usable slug, skipped", client))
			continue
		}

		clientRoot := filepath.Join(root, client)
		err := p.FS.WalkDir(clientRoot, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.IsDir() || !domain.IsClientExtension(filepath.Ext(d.Name())) {
				return nil
			}

			job, err := p.clientJob(path, relativeTo(clientRoot, path), client, slug)
			if err != nil {
				return err
			}
			jobs = append(jobs, job)
			return nil
		})
		if err != nil {
			return domain.Plan{}, enumerationError(clientRoot, err)
		}
	}

	return p.finish(domain.PassClients, jobs, warnings), nil
}

// PlanFile plans a single file the way a run would: as a brand asset, or as
// part of the named client's folder when client is set. Paths outside the
// category root are classified by their file name alone.
func (p *Planner) PlanFile(path, client string) (domain.Job, error) {
	if err := p.check(); err != nil {
		return domain.Job{}, err
	}
	if client == "" {
		return p.brandJob(path, p.relativeOrBase(p.Layout.BrandRoot, path))
	}

	slug := domain.Slugify(client, domain.DefaultSlugLength)
	if slug == "" {
		return domain.Job{}, appErrors.Wrap(appErrors.InvalidConfig, "classify", client, errors.New("client name has no usable slug"))
	}
	clientRoot := filepath.Join(p.Layout.ClientsRoot, client)
	return p.clientJob(path, p.relativeOrBase(clientRoot, path), client, slug)
}

func (p *Planner) brandJob(path, rel string) (domain.Job, error) {
	asset := domain.NewSourceAsset(path, rel, domain.CategoryBrand, "")
	classification := domain.Classify(asset)
	dest := filepath.Join(
		p.Layout.DestRoot,
		filepath.FromSlash(classification.SubDirectory),
		domain.OutputName(asset.Name, classification.Passthrough),
	)
	return p.newJob(asset, classification, dest)
}

func (p *Planner) clientJob(path, rel, client, slug string) (domain.Job, error) {
	asset := domain.NewSourceAsset(path, rel, domain.CategoryClient, client)
	classification := domain.Classify(asset)
	dest := filepath.Join(
		p.Layout.DestRoot,
		filepath.FromSlash(classification.SubDirectory),
		slug+classification.Suffix+"."+domain.OutputFormat,
	)
	return p.newJob(asset, classification, dest)
}

func (p *Planner) relativeOrBase(root, path string) string {
	rel := relativeTo(root, path)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(path)
	}
	return rel
}

func (p *Planner) check() error {
	if p.FS == nil {
		return errors.New("planner requires FS")
	}
	if p.Presets == nil {
		return errors.New("planner requires a preset table")
	}
	return nil
}

func (p *Planner) newJob(asset domain.SourceAsset, classification domain.Classification, dest string) (domain.Job, error) {
	preset, err := p.Presets.Lookup(classification.Preset)
	if err != nil {
		return domain.Job{}, appErrors.Wrap(appErrors.InvalidConfig, "preset", asset.Path, err)
	}

	format := domain.OutputFormat
	if classification.Passthrough {
		format = asset.Ext[1:]
	}

	mappingSource := asset.RelativePath
	if p.Layout.SourceRoot != "" {
		mappingSource = relativeTo(p.Layout.SourceRoot, asset.Path)
	}

	return domain.Job{
		Source:             asset,
		Classification:     classification,
		Preset:             preset,
		Destination:        domain.DestinationAsset{Path: dest, Format: format},
		MappingSource:      filepath.ToSlash(mappingSource),
		MappingDestination: filepath.ToSlash(relativeTo(p.Layout.DestRoot, dest)),
	}, nil
}

func (p *Planner) finish(pass domain.Pass, jobs []domain.Job, warnings []string) domain.Plan {
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].Source.Path < jobs[j].Source.Path
	})

	claimed := make(map[string]int, len(jobs))
	for i, job := range jobs {
		dest := job.Destination.Path
		if previous, ok := claimed[dest]; ok {
			warnings = append(warnings, fmt.Sprintf("%s and %s both write %s; the later one wins", jobs[previous].Source.RelativePath, job.Source.RelativePath, job.MappingDestination))
			jobs[previous].SharedDestination = true
			jobs[i].SharedDestination = true
			continue
		}
		claimed[dest] = i
	}

	p.Logger.Verbosef("Planned %d %s jobs (%d warnings)", len(jobs), pass, len(warnings))
	return domain.Plan{Pass: pass, Jobs: jobs, Warnings: warnings}
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return rel
}

func enumerationError(root string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return appErrors.Wrap(appErrors.Canceled, "walk", root, err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return appErrors.Wrap(appErrors.NotFound, "walk", root, err)
	}
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return appErrors.Wrap(appErrors.IOFailure, "walk", root, err)
}
