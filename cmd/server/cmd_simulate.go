package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wecare-alerts/internal/simulate"
)

var simulateOpts struct {
	patientID string
	count     int
	seed      uint64
	out       string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Score random readings against a patient's history and write an xlsx report",
	Long: `Generates readings (60% from typical ranges, 40% from wide ranges), evaluates
each against the patient's current history without saving it, and writes the
verdicts plus a summary sheet to an xlsx workbook.`,
	RunE: runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.StringVar(&simulateOpts.patientID, "patient", "", "Patient ID whose history is used (required)")
	f.IntVar(&simulateOpts.count, "count", 1000, "Number of readings to generate")
	f.Uint64Var(&simulateOpts.seed, "seed", 0, "Random seed; 0 picks one from the clock")
	f.StringVar(&simulateOpts.out, "out", "test_results.xlsx", "Output workbook path")
	_ = simulateCmd.MarkFlagRequired("patient")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	if simulateOpts.count <= 0 {
		return fmt.Errorf("count must be positive, got %d", simulateOpts.count)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx := cmd.Context()
	store, closeStore, err := openHistory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	engine, err := newEngine(cfg, store, log)
	if err != nil {
		return err
	}

	seed := simulateOpts.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	cases, sum, err := simulate.Run(ctx, engine, simulate.NewGenerator(seed), simulateOpts.patientID, simulateOpts.count)
	if err != nil {
		return err
	}
	if err := simulate.WriteReport(simulateOpts.out, cases, sum); err != nil {
		return err
	}

	log.Info("Simulation complete",
		zap.String("patient_id", simulateOpts.patientID),
		zap.Uint64("seed", seed),
		zap.Int("total", sum.Total),
		zap.Int("abnormal", sum.Abnormal),
		zap.Int("normal", sum.Normal),
		zap.String("report", simulateOpts.out),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "Total cases: %d\nAbnormal cases: %d\nNormal cases: %d\nReport: %s\n",
		sum.Total, sum.Abnormal, sum.Normal, simulateOpts.out)
	return nil
}
