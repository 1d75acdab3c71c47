// Package dataset assembles decoded report pairs into a time-ordered table.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/passdown/internal/layout"
	"github.com/verte-zerg/passdown/internal/model"
	"github.com/verte-zerg/passdown/internal/pairing"
	"github.com/verte-zerg/passdown/internal/passdown"
)

// TimestampFormat is how timestamps are written to tabular output.
const TimestampFormat = "2006-01-02 15:04:05"

// Outcome classifies what happened to one pair.
type Outcome int

// Pair outcomes.
const (
	Decoded Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Decoded:
		return "decoded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of decoding one pair.
type Result struct {
	Pair        pairing.Pair
	Outcome     Outcome
	Observation model.Observation
	// Reason is set for Skipped results.
	Reason string
	// Err is set for Skipped and Failed results.
	Err error
}

// Skip records a pair left out of the dataset.
type Skip struct {
	Pair   pairing.Pair
	Reason string
}

// Dataset is the assembled table. Observations are ordered by timestamp;
// equal timestamps keep status path order.
type Dataset struct {
	Columns      []string
	Observations []model.Observation
	Skipped      []Skip

	layout layout.Layout
}

// New returns a dataset over observations, sorted by timestamp.
func New(l layout.Layout, observations []model.Observation, skipped []Skip) Dataset {
	sort.SliceStable(observations, func(i, j int) bool {
		return observations[i].Timestamp.Before(observations[j].Timestamp)
	})
	return Dataset{
		Columns:      l.Columns(),
		Observations: observations,
		Skipped:      skipped,
		layout:       l,
	}
}

// Len returns the number of rows.
func (d Dataset) Len() int {
	return len(d.Observations)
}

// Layout returns the field table the dataset was decoded with.
func (d Dataset) Layout() layout.Layout {
	return d.layout
}

// Values returns the cells of row i in column order. Counts are ints, the
// rest are strings.
func (d Dataset) Values(i int) []any {
	o := d.Observations[i]
	row := make([]any, 0, len(d.Columns))
	row = append(row,
		o.Timestamp.Format(TimestampFormat),
		o.SortID,
		string(o.Shift),
		o.Weekday.String(),
		o.Volume,
	)
	for _, cat := range model.Categories {
		row = append(row, o.Reject(cat))
	}
	for _, c := range d.layout.Counters {
		v := o.Counters[c.Name]
		row = append(row, v.SS1, v.SS2)
		if c.Columns.Total != "" {
			row = append(row, v.Total)
		}
	}
	return row
}

// Record returns row i as text, in column order.
func (d Dataset) Record(i int) []string {
	values := d.Values(i)
	rec := make([]string, len(values))
	for j, v := range values {
		switch v := v.(type) {
		case int:
			rec[j] = strconv.Itoa(v)
		case string:
			rec[j] = v
		default:
			rec[j] = fmt.Sprint(v)
		}
	}
	return rec
}

// Assembler drives pairing and decoding.
type Assembler struct {
	decoder *passdown.Decoder
	workers int
	logger  *slog.Logger
}

// NewAssembler returns an assembler decoding with up to workers pairs at a
// time. Values below one decode sequentially.
func NewAssembler(decoder *passdown.Decoder, workers int, logger *slog.Logger) *Assembler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{decoder: decoder, workers: workers, logger: logger}
}

// Decode decodes one pair and classifies the result. A missing report skips
// the pair; any other error fails it.
func (a *Assembler) Decode(pair pairing.Pair) Result {
	obs, err := a.decoder.Decode(pair.Status, pair.Gauge)
	switch {
	case err == nil:
		return Result{Pair: pair, Outcome: Decoded, Observation: obs}
	case errors.Is(err, fs.ErrNotExist):
		return Result{Pair: pair, Outcome: Skipped, Reason: "missing report", Err: err}
	default:
		return Result{Pair: pair, Outcome: Failed, Err: err}
	}
}

// Build pairs the reports matching pattern and decodes them. Pairs with a
// missing report are skipped and listed in the dataset. The first malformed or
// short report aborts the build and no dataset is returned.
func (a *Assembler) Build(ctx context.Context, pattern string) (Dataset, error) {
	pairs, err := pairing.Pairs(pattern)
	if err != nil {
		return Dataset{}, err
	}
	results, err := a.decodeAll(ctx, pairs)
	if err != nil {
		return Dataset{}, err
	}

	observations := make([]model.Observation, 0, len(results))
	var skipped []Skip
	for _, res := range results {
		switch res.Outcome {
		case Decoded:
			observations = append(observations, res.Observation)
		case Skipped:
			a.logger.DebugContext(ctx, "skipping report pair",
				slog.String("status", res.Pair.Status),
				slog.String("gauge", res.Pair.Gauge),
				slog.String("reason", res.Reason),
				slog.Any("error", res.Err))
			skipped = append(skipped, Skip{Pair: res.Pair, Reason: res.Reason})
		}
	}
	a.logger.InfoContext(ctx, "dataset assembled",
		slog.String("pattern", pattern),
		slog.Int("pairs", len(pairs)),
		slog.Int("decoded", len(observations)),
		slog.Int("skipped", len(skipped)))
	return New(a.decoder.Layout(), observations, skipped), nil
}

// decodeAll returns results in pair order.
func (a *Assembler) decodeAll(ctx context.Context, pairs []pairing.Pair) ([]Result, error) {
	results := make([]Result, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, pair := range pairs {
		if gctx.Err() != nil {
			break
		}
		i, pair := i, pair
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := a.Decode(pair)
			if res.Outcome == Failed {
				return fmt.Errorf("failed to decode report pair: %w", res.Err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
