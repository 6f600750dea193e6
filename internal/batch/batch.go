// Package batch runs plate lookups over a spreadsheet of plates and writes
// the results back as a workbook, one row per input plate.
package batch

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"vehicle-info-bot/internal/service"
)

const (
	resultsSheet = "Results"

	StatusError = "error"
)

type Lookuper interface {
	Lookup(ctx context.Context, plate string) (*service.LookupResult, error)
}

// Row is the outcome of one plate. Exactly one of Result and Err is set.
type Row struct {
	Plate  string
	Result *service.LookupResult
	Err    error
}

func (r Row) Status() string {
	if r.Err != nil || r.Result == nil {
		return StatusError
	}
	return string(r.Result.Outcome)
}

type Runner struct {
	lookup      Lookuper
	concurrency int
	log         zerolog.Logger
}

func NewRunner(lookup Lookuper, concurrency int, log zerolog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		lookup:      lookup,
		concurrency: concurrency,
		log:         log,
	}
}

// Run looks up every plate, preserving input order. A failed lookup is kept
// on its row; only cancellation of ctx aborts the run.
func (r *Runner) Run(ctx context.Context, plates []string) ([]Row, error) {
	rows := make([]Row, len(plates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, plate := range plates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := r.lookup.Lookup(gctx, plate)
			rows[i] = Row{Plate: plate, Result: result, Err: err}
			if err != nil {
				r.log.Warn().Err(err).Str("plate", plate).Msg("batch lookup failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch interrupted: %w", err)
	}

	found := 0
	for _, row := range rows {
		if row.Status() == string(service.OutcomeFound) {
			found++
		}
	}
	r.log.Info().Int("plates", len(plates)).Int("found", found).Msg("batch finished")

	return rows, nil
}

// ReadPlates returns the non-empty first-column cells of sheet (the first
// sheet when empty). A first row without digits is treated as a header.
func ReadPlates(in io.Reader, sheet string) ([]string, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	plates := make([]string, 0, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell := strings.TrimSpace(row[0])
		if cell == "" {
			continue
		}
		if i == 0 && !strings.ContainsAny(cell, "0123456789") {
			continue
		}
		plates = append(plates, cell)
	}
	return plates, nil
}

// WriteResults writes rows as an xlsx workbook to out.
func WriteResults(rows []Row, out io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := []interface{}{"plate", "normalized", "status", "resource"}
	for _, field := range service.Fields {
		header = append(header, field.Label)
	}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(resultsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := rowValues(row)
		if err := f.SetSheetRow(resultsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func rowValues(row Row) []interface{} {
	values := make([]interface{}, 0, 4+len(service.Fields))
	values = append(values, row.Plate)

	if row.Result == nil {
		values = append(values, "", row.Status(), "")
		return values
	}
	values = append(values, row.Result.Normalized, row.Status(), row.Result.Resource)

	byKey := make(map[string]string, len(row.Result.Reply.Lines))
	for _, line := range row.Result.Reply.Lines {
		byKey[line.Key] = line.Value
	}
	for _, field := range service.Fields {
		values = append(values, byKey[field.Key])
	}
	return values
}
