package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"assetopt/internal/domain"
)

const DefaultReportName = "path-mapping.json"

const reportNote = "mappings: source path relative to the source root -> output path relative to the destination root"

type ReportWriter struct {
	FS    FileSystem
	Now   func() time.Time
	NewID func() string
}

// Write replaces the report at path with one built from result.
func (w ReportWriter) Write(ctx context.Context, path string, result domain.RunResult) (domain.RunReport, error) {
	if w.FS == nil {
		return domain.RunReport{}, errors.New("report writer requires FS")
	}
	if err := ctx.Err(); err != nil {
		return domain.RunReport{}, err
	}

	report := w.Build(result)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return domain.RunReport{}, err
	}
	data = append(data, '\n')
	if err := w.FS.WriteFile(path, data, 0o644); err != nil {
		return domain.RunReport{}, err
	}
	return report, nil
}

func (w ReportWriter) Build(result domain.RunResult) domain.RunReport {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	newID := uuid.NewString
	if w.NewID != nil {
		newID = w.NewID
	}

	totals := result.Totals()
	mappings := make(map[string]string, len(totals.Mappings))
	for _, m := range totals.Mappings {
		mappings[m.Source] = m.Destination
	}

	return domain.RunReport{
		GeneratedAt: now().UTC(),
		RunID:       newID(),
		Note:        reportNote,
		Counters:    totals.Counters,
		Mappings:    mappings,
	}
}
