// Package extractor finds tracking-code candidates in a dataset.
//
// Every scoped cell is stringified, canonicalized when it holds right-to-left
// script and scanned with an ordered PatternSet. Candidates are reported in
// scan order (column, then row, then pattern, then match position) and only
// the first occurrence of each code is kept.
//
// Extraction can run sequentially or split the rows into fixed-size chunks
// scanned by a bounded set of goroutines. Chunk results are merged column by
// column in chunk order before deduplication, so the output does not depend
// on the chunk size or the worker count.
package extractor

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/models"
	"tracking-reconciliation-service/pkg/logger"
)

// ExecutionMode selects how rows are scanned
type ExecutionMode string

const (
	// ModeSequential scans every row on the calling goroutine
	ModeSequential ExecutionMode = "sequential"
	// ModeThreads scans row-range chunks of the shared dataset in parallel
	ModeThreads ExecutionMode = "threads"
	// ModeIsolated hands every chunk worker its own deep copy of the rows
	ModeIsolated ExecutionMode = "isolated"
)

// DefaultChunkSize is the number of rows per chunk in the parallel modes.
const DefaultChunkSize = 1000

// Options configures an Extractor
type Options struct {
	Mode      ExecutionMode `json:"mode" mapstructure:"mode"`
	Workers   int           `json:"workers" mapstructure:"workers"`
	ChunkSize int           `json:"chunk_size" mapstructure:"chunk_size"`
}

// DefaultOptions returns sequential extraction
func DefaultOptions() Options {
	return Options{
		Mode:      ModeSequential,
		Workers:   runtime.NumCPU(),
		ChunkSize: DefaultChunkSize,
	}
}

// Validate checks the execution options
func (o Options) Validate() error {
	switch o.Mode {
	case ModeSequential, ModeThreads, ModeIsolated:
	default:
		return fmt.Errorf("unknown execution mode %q", o.Mode)
	}
	if o.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", o.Workers)
	}
	if o.ChunkSize < 0 {
		return fmt.Errorf("chunk size cannot be negative, got %d", o.ChunkSize)
	}
	return nil
}

// ColumnScope selects the columns an extraction reads.
type ColumnScope struct {
	all   bool
	names []string
}

// AllColumns scopes extraction to every column in dataset order.
func AllColumns() ColumnScope {
	return ColumnScope{all: true}
}

// Columns scopes extraction to an allow-list, scanned in the order given.
// Names absent from the dataset are skipped.
func Columns(names ...string) ColumnScope {
	cp := make([]string, len(names))
	copy(cp, names)
	return ColumnScope{names: cp}
}

// Resolve returns the positions of the scoped columns present in ds. A name
// listed twice is scanned once.
func (s ColumnScope) Resolve(ds *dataset.Dataset) []int {
	if s.all {
		out := make([]int, ds.NumColumns())
		for i := range out {
			out[i] = i
		}
		return out
	}

	var out []int
	seen := make(map[int]bool, len(s.names))
	for _, name := range s.names {
		idx, ok := ds.ColumnIndex(name)
		if !ok || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}
	return out
}

// Extractor scans datasets for candidates.
type Extractor struct {
	opts   Options
	logger logger.Logger
}

// New creates an extractor. Zero workers or chunk size take the defaults.
func New(opts Options, log logger.Logger) *Extractor {
	if opts.Mode == "" {
		opts.Mode = ModeSequential
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Extractor{
		opts:   opts,
		logger: logger.OrGlobal(log).WithComponent("extractor"),
	}
}

// Options returns the effective options.
func (e *Extractor) Options() Options {
	return e.opts
}

// Extract returns the deduplicated candidates of ds in scan order. An empty
// dataset or an empty scope yields no candidates and no error.
func (e *Extractor) Extract(ctx context.Context, ds *dataset.Dataset, scope ColumnScope, patterns *PatternSet) ([]models.Candidate, error) {
	cols := scope.Resolve(ds)
	if ds.IsEmpty() || len(cols) == 0 || patterns == nil || len(patterns.Patterns) == 0 {
		return nil, nil
	}

	log := e.logger.WithFields(logger.Fields{
		"dataset":  ds.Name,
		"columns":  len(cols),
		"rows":     ds.Len(),
		"patterns": patterns.String(),
		"mode":     string(e.opts.Mode),
	})
	log.Debug("Extracting candidates")

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "extract " + ds.Name,
		Total:     int64(ds.Len()),
		Logger:    e.logger,
	})

	var (
		chunks [][][]models.Candidate
		err    error
	)
	if e.opts.Mode == ModeSequential || ds.Len() <= e.opts.ChunkSize {
		chunks = [][][]models.Candidate{scanChunk(ds, cols, patterns)}
		progress.Add(int64(ds.Len()))
	} else {
		chunks, err = e.scanParallel(ctx, ds, cols, patterns, progress)
		if err != nil {
			return nil, err
		}
	}
	progress.Complete()

	out := dedup(merge(chunks, len(cols)))
	log.WithField("candidates", len(out)).Debug("Extraction finished")
	return out, nil
}

// scanParallel splits ds into row-range chunks and scans them on a bounded
// errgroup. Each goroutine writes only its own slot of the result slice.
func (e *Extractor) scanParallel(ctx context.Context, ds *dataset.Dataset, cols []int, patterns *PatternSet, progress *logger.ProgressTracker) ([][][]models.Candidate, error) {
	size := e.opts.ChunkSize
	n := (ds.Len() + size - 1) / size
	results := make([][][]models.Candidate, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i := 0; i < n; i++ {
		chunk := ds.Slice(i*size, (i+1)*size)
		if e.opts.Mode == ModeIsolated {
			chunk = chunk.Clone()
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = scanChunk(chunk, cols, patterns)
			progress.Add(int64(chunk.Len()))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanChunk returns, per scoped column, the candidates of chunk in row and
// pattern order. Duplicates within one column list are dropped early; the
// first occurrence is kept so the global dedup is unaffected.
func scanChunk(chunk *dataset.Dataset, cols []int, patterns *PatternSet) [][]models.Candidate {
	out := make([][]models.Candidate, len(cols))
	for k, col := range cols {
		name := chunk.Column(col)
		seen := make(map[string]bool)
		for i := 0; i < chunk.Len(); i++ {
			row := chunk.Row(i)
			raw := row.Values[col]
			if raw == nil {
				continue
			}
			text := Canonicalize(dataset.FormatCell(raw))
			if text == "" {
				continue
			}
			for _, code := range patterns.FindUnique(text, seen) {
				out[k] = append(out[k], models.Candidate{
					Code:         code,
					Column:       name,
					Row:          row.ID,
					OriginalText: text,
				})
			}
		}
	}
	return out
}

// merge concatenates chunk results column by column in chunk order, which
// restores the sequential scan order.
func merge(chunks [][][]models.Candidate, numCols int) []models.Candidate {
	var out []models.Candidate
	for k := 0; k < numCols; k++ {
		for _, chunk := range chunks {
			out = append(out, chunk[k]...)
		}
	}
	return out
}

func dedup(candidates []models.Candidate) []models.Candidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.Code] {
			continue
		}
		seen[c.Code] = true
		out = append(out, c)
	}
	return out
}
