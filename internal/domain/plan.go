package domain

import "time"

type Pass string

const (
	PassBrand   Pass = "brand"
	PassClients Pass = "clients"
)

type Job struct {
	Source         SourceAsset
	Classification Classification
	Preset         Preset
	Destination    DestinationAsset
	// MappingSource and MappingDestination are the slash-separated paths
	// recorded in the run report, relative to the source and destination roots.
	MappingSource      string
	MappingDestination string
	// SharedDestination is set when other jobs of the plan write the same
	// destination path.
	SharedDestination bool
}

type Plan struct {
	Pass     Pass
	Jobs     []Job
	Warnings []string
}

type Counters struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (c Counters) Add(other Counters) Counters {
	return Counters{
		Processed: c.Processed + other.Processed,
		Skipped:   c.Skipped + other.Skipped,
		Errors:    c.Errors + other.Errors,
	}
}

type Mapping struct {
	Source      string
	Destination string
}

// Output describes one written file.
type Output struct {
	Path   string
	Format string
	Width  int
	Height int
	Bytes  int64
}

type PassResult struct {
	Pass        Pass
	Counters    Counters
	Mappings    []Mapping
	SourceBytes int64
	OutputBytes int64
	Warnings    []string
}

type RunResult struct {
	Brand   PassResult
	Clients PassResult
}

func (r RunResult) Totals() PassResult {
	return PassResult{
		Counters:    r.Brand.Counters.Add(r.Clients.Counters),
		Mappings:    append(append([]Mapping{}, r.Brand.Mappings...), r.Clients.Mappings...),
		SourceBytes: r.Brand.SourceBytes + r.Clients.SourceBytes,
		OutputBytes: r.Brand.OutputBytes + r.Clients.OutputBytes,
		Warnings:    append(append([]string{}, r.Brand.Warnings...), r.Clients.Warnings...),
	}
}

type RunReport struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	RunID       string            `json:"runId"`
	Note        string            `json:"note"`
	Counters    Counters          `json:"counters"`
	Mappings    map[string]string `json:"mappings"`
}

type EventStatus string

const (
	EventProcessed EventStatus = "processed"
	EventSkipped   EventStatus = "skipped"
	EventFailed    EventStatus = "failed"
)

// Event reports the outcome of one job while a pass is running.
type Event struct {
	Pass   Pass
	Index  int
	Total  int
	Job    Job
	Status EventStatus
	Output Output
	Err    error
}

type LedgerEntry struct {
	SourcePath string
	DestPath   string
	SourceHash string
	ParamsHash string
	UpdatedAt  time.Time
}
