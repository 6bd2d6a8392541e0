// Package simulate probes the decision engine with random readings for one
// patient and writes the verdicts to an xlsx report.
package simulate

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/xuri/excelize/v2"

	"wecare-alerts/internal/vitals"
)

const (
	resultsSheet = "Results"
	summarySheet = "Summary"

	// DefaultNormalShare is the fraction of readings drawn from typical ranges.
	DefaultNormalShare = 0.6
)

var resultsHeader = []string{"Case", "Temperature", "SpO2", "Heart Rate", "Abnormal", "Strategy"}

// Evaluator is satisfied by *vitals.Engine.
type Evaluator interface {
	Evaluate(ctx context.Context, patientID string, r vitals.Reading) (vitals.Verdict, error)
}

type Case struct {
	ID      int
	Reading vitals.Reading
	Verdict vitals.Verdict
}

type Summary struct {
	Total    int
	Abnormal int
	Normal   int
}

// Generator draws readings: NormalShare of them from typical adult ranges and
// the rest from wide ranges that include implausible sensor values.
type Generator struct {
	rng         *rand.Rand
	NormalShare float64
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		NormalShare: DefaultNormalShare,
	}
}

func (g *Generator) Reading(patientID string, at time.Time) vitals.Reading {
	r := vitals.Reading{PatientID: patientID, Timestamp: at}
	if g.rng.Float64() < g.NormalShare {
		r.Temperature = g.uniform1(97.5, 99.5)
		r.SpO2 = float64(g.intIn(95, 100))
		r.HeartRate = g.intIn(60, 100)
	} else {
		r.Temperature = g.uniform1(94.0, 105.0)
		r.SpO2 = float64(g.intIn(70, 94))
		r.HeartRate = g.intIn(30, 200)
	}
	return r
}

// uniform1 returns a value in [lo, hi] rounded to one decimal.
func (g *Generator) uniform1(lo, hi float64) float64 {
	return math.Round((lo+g.rng.Float64()*(hi-lo))*10) / 10
}

// intIn is inclusive on both ends.
func (g *Generator) intIn(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

// Run evaluates n generated readings against the patient's current history.
// Readings are not persisted, so every case sees the same history.
func Run(ctx context.Context, ev Evaluator, gen *Generator, patientID string, n int) ([]Case, Summary, error) {
	cases := make([]Case, 0, n)
	var sum Summary
	now := time.Now().UTC()

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, Summary{}, err
		}
		r := gen.Reading(patientID, now)
		v, err := ev.Evaluate(ctx, patientID, r)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("case %d: %w", i+1, err)
		}
		cases = append(cases, Case{ID: i + 1, Reading: r, Verdict: v})
		sum.Total++
		if v.Abnormal {
			sum.Abnormal++
		} else {
			sum.Normal++
		}
	}
	return cases, sum, nil
}

// WriteReport saves cases and summary as an xlsx workbook at path.
func WriteReport(path string, cases []Case, sum Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, resultsSheet, 1, toAny(resultsHeader)); err != nil {
		return err
	}
	if err := f.SetCellStyle(resultsSheet, "A1", "F1", headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	for i, c := range cases {
		row := []any{
			c.ID,
			c.Reading.Temperature,
			c.Reading.SpO2,
			c.Reading.HeartRate,
			c.Verdict.Abnormal,
			string(c.Verdict.Strategy),
		}
		if err := writeRow(f, resultsSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(resultsSheet, "A", "F", 14); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	summaryRows := [][]any{
		{"Total cases", sum.Total},
		{"Abnormal cases", sum.Abnormal},
		{"Normal cases", sum.Normal},
	}
	for i, row := range summaryRows {
		if err := writeRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("convert coordinates: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
