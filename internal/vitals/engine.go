package vitals

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wecare-alerts/internal/classifier"
)

// Policy defaults.
const (
	DefaultMinHistory    = 5
	DefaultZThreshold    = 2.0
	DefaultHistoryWindow = 100
)

// Policy decides between the personal baseline and the fallback classifier.
type Policy struct {
	// MinHistory is the smallest history that earns a personal baseline.
	MinHistory int
	// ZThreshold is how many standard deviations a vital may drift.
	ZThreshold float64
	// HistoryWindow caps how many recent readings feed the baseline.
	HistoryWindow int
}

func DefaultPolicy() Policy {
	return Policy{
		MinHistory:    DefaultMinHistory,
		ZThreshold:    DefaultZThreshold,
		HistoryWindow: DefaultHistoryWindow,
	}
}

func (p Policy) Validate() error {
	if p.MinHistory < 2 {
		return fmt.Errorf("min history must be at least 2, got %d", p.MinHistory)
	}
	if !(p.ZThreshold > 0) {
		return fmt.Errorf("z threshold must be positive, got %g", p.ZThreshold)
	}
	if p.HistoryWindow < p.MinHistory {
		return fmt.Errorf("history window %d is smaller than min history %d", p.HistoryWindow, p.MinHistory)
	}
	return nil
}

// Engine decides whether a reading is abnormal for the patient who produced it.
// It keeps no state between evaluations.
type Engine struct {
	store      HistoryStore
	classifier classifier.Classifier
	policy     Policy
	logger     *zap.Logger
}

func NewEngine(store HistoryStore, clf classifier.Classifier, policy Policy, logger *zap.Logger) (*Engine, error) {
	if store == nil || clf == nil {
		return nil, errors.New("engine requires a history store and a classifier")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		store:      store,
		classifier: clf,
		policy:     policy,
		logger:     logger,
	}, nil
}

func (e *Engine) Policy() Policy { return e.policy }

// Evaluate reads the patient's history once and scores r against it.
func (e *Engine) Evaluate(ctx context.Context, patientID string, r Reading) (Verdict, error) {
	history, err := e.store.History(ctx, patientID, e.policy.HistoryWindow)
	if err != nil {
		e.logger.Warn("History unavailable, using fallback classifier",
			zap.String("patient_id", patientID),
			zap.Error(err),
		)
		history = nil
	}

	if len(history) < e.policy.MinHistory {
		return e.classify(patientID, r, len(history))
	}

	baseline := ComputeBaseline(history)
	flags := baseline.Flag(r, e.policy.ZThreshold)

	e.logger.Debug("Evaluated against baseline",
		zap.String("patient_id", patientID),
		zap.Int("history_size", len(history)),
		zap.Bool("temperature", flags.Temperature),
		zap.Bool("spo2", flags.SpO2),
		zap.Bool("heart_rate", flags.HeartRate),
	)

	return Verdict{
		Abnormal:    flags.Any(),
		Strategy:    StrategyBaseline,
		HistorySize: len(history),
		Flags:       flags,
		Baseline:    &baseline,
	}, nil
}

func (e *Engine) classify(patientID string, r Reading, historySize int) (Verdict, error) {
	class, err := e.classifier.Predict(classifier.Features{
		Temperature: r.Temperature,
		SpO2:        r.SpO2,
		HeartRate:   float64(r.HeartRate),
	})
	if err != nil {
		return Verdict{}, fmt.Errorf("fallback classifier: %w", err)
	}

	e.logger.Debug("Evaluated with fallback classifier",
		zap.String("patient_id", patientID),
		zap.Int("history_size", historySize),
		zap.Int("class", class),
	)

	return Verdict{
		Abnormal:    class == classifier.Irregular,
		Strategy:    StrategyClassifier,
		HistorySize: historySize,
	}, nil
}
