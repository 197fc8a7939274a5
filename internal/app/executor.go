package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"assetopt/internal/domain"
	"assetopt/internal/logging"
)

// Executor runs the jobs of a plan. A failing job is recorded and the pass
// goes on; only cancellation stops it early.
type Executor struct {
	Transcoder Transcoder
	FS         FileSystem
	// Ledger enables incremental runs when set.
	Ledger Ledger
	// HeroVariants, when set, renders responsive variants next to each hero.
	HeroVariants *VariantGenerator
	Workers      int
	OnEvent      func(domain.Event)
	Logger       logging.Logger
}

type outcome struct {
	status      domain.EventStatus
	output      domain.Output
	sourceBytes int64
	err         error
}

func (e *Executor) Execute(ctx context.Context, plan domain.Plan) (domain.PassResult, error) {
	result := domain.PassResult{Pass: plan.Pass, Warnings: plan.Warnings}
	if e.FS == nil {
		return result, errors.New("executor requires FS")
	}

	stop := e.Logger.Measure(fmt.Sprintf("Executing %s pass", plan.Pass))
	defer stop()

	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	total := len(plan.Jobs)
	outcomes := make([]outcome, total)
	var mu sync.Mutex
	finished := 0

	finish := func(i int, oc outcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes[i] = oc
		finished++
		if e.OnEvent != nil {
			e.OnEvent(domain.Event{
				Pass:   plan.Pass,
				Index:  finished,
				Total:  total,
				Job:    plan.Jobs[i],
				Status: oc.status,
				Output: oc.output,
				Err:    oc.err,
			})
		}
	}

	// Jobs sharing a destination run in plan order on one worker so the
	// later job overwrites the earlier one, as in a serial run.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, group := range groupByDestination(plan.Jobs) {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			for _, i := range group {
				if err := gctx.Err(); err != nil {
					return err
				}
				oc := e.run(gctx, plan.Jobs[i])
				if oc.err != nil && isCanceled(oc.err) {
					return oc.err
				}
				finish(i, oc)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	for i, oc := range outcomes {
		job := plan.Jobs[i]
		switch oc.status {
		case domain.EventProcessed:
			result.Counters.Processed++
		case domain.EventSkipped:
			result.Counters.Skipped++
		case domain.EventFailed:
			result.Counters.Errors++
			continue
		}
		result.SourceBytes += oc.sourceBytes
		result.OutputBytes += oc.output.Bytes
		result.Mappings = append(result.Mappings, domain.Mapping{
			Source:      job.MappingSource,
			Destination: job.MappingDestination,
		})
	}

	e.Logger.Verbosef("%s pass: %d processed, %d skipped, %d errors", plan.Pass, result.Counters.Processed, result.Counters.Skipped, result.Counters.Errors)
	return result, nil
}

func (e *Executor) run(ctx context.Context, job domain.Job) outcome {
	var oc outcome
	if info, err := e.FS.Stat(job.Source.Path); err == nil {
		oc.sourceBytes = info.Size()
	}

	var sourceHash string
	if e.Ledger != nil {
		hash, err := e.hashSource(job.Source.Path)
		if err != nil {
			e.Logger.Warnf("hash %s: %v", job.Source.Path, err)
		} else {
			sourceHash = hash
			// A shared destination only holds the last writer's output, so
			// its file says nothing about this job being up to date.
			if !job.SharedDestination {
				if out, ok := e.upToDate(ctx, job, hash); ok {
					oc.status = domain.EventSkipped
					oc.output = out
					e.renderVariants(ctx, job, true)
					return oc
				}
			}
		}
	}

	out, err := e.Transcoder.Transcode(ctx, job)
	if err != nil {
		oc.status = domain.EventFailed
		oc.err = err
		return oc
	}
	oc.status = domain.EventProcessed
	oc.output = out

	if e.Ledger != nil && sourceHash != "" {
		entry := domain.LedgerEntry{
			SourcePath: job.Source.Path,
			DestPath:   job.Destination.Path,
			SourceHash: sourceHash,
			ParamsHash: paramsHash(job),
		}
		if err := e.Ledger.Record(ctx, entry); err != nil {
			e.Logger.Warnf("record %s in ledger: %v", job.Source.Path, err)
		}
	}

	e.renderVariants(ctx, job, false)
	return oc
}

// renderVariants writes the responsive variants of a hero job. With
// onlyMissing set, variants already on disk are kept.
func (e *Executor) renderVariants(ctx context.Context, job domain.Job, onlyMissing bool) {
	if e.HeroVariants == nil || job.Preset.Name != domain.PresetHero || job.Classification.Passthrough {
		return
	}
	base := strings.TrimSuffix(job.Destination.Path, "."+domain.OutputFormat)

	var err error
	if onlyMissing {
		_, err = e.HeroVariants.GenerateMissing(ctx, job.Source.Path, base, func(path string) bool {
			ok, statErr := e.FS.Exists(path)
			return ok && statErr == nil
		})
	} else {
		_, err = e.HeroVariants.Generate(ctx, job.Source.Path, base)
	}
	if err != nil && !isCanceled(err) {
		e.Logger.Warnf("responsive variants for %s: %v", job.Source.Name, err)
	}
}

func (e *Executor) upToDate(ctx context.Context, job domain.Job, sourceHash string) (domain.Output, bool) {
	entry, found, err := e.Ledger.Lookup(ctx, job.Source.Path)
	if err != nil {
		e.Logger.Warnf("ledger lookup %s: %v", job.Source.Path, err)
		return domain.Output{}, false
	}
	if !found || entry.DestPath != job.Destination.Path || entry.SourceHash != sourceHash || entry.ParamsHash != paramsHash(job) {
		return domain.Output{}, false
	}
	info, err := e.FS.Stat(job.Destination.Path)
	if err != nil {
		return domain.Output{}, false
	}
	return domain.Output{Path: job.Destination.Path, Format: job.Destination.Format, Bytes: info.Size()}, true
}

func (e *Executor) hashSource(path string) (string, error) {
	file, err := e.FS.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h := sha256.New()
	if _, err := io.Copy(h, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// groupByDestination returns job indices grouped by destination path, groups
// ordered by their first job and indices in plan order.
func groupByDestination(jobs []domain.Job) [][]int {
	var groups [][]int
	position := make(map[string]int, len(jobs))
	for i, job := range jobs {
		if at, ok := position[job.Destination.Path]; ok {
			groups[at] = append(groups[at], i)
			continue
		}
		position[job.Destination.Path] = len(groups)
		groups = append(groups, []int{i})
	}
	return groups
}

// paramsHash changes whenever anything that shapes the output bytes changes.
func paramsHash(job domain.Job) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%s|%t",
		job.Preset.Name, job.Preset.Width, job.Preset.Quality, job.Destination.Format, job.Classification.Passthrough)))
	return hex.EncodeToString(sum[:8])
}
