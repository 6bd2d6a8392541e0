// Package predict runs one reading through validation, the anomaly decision
// and, when the reading is abnormal, the alert fan-out.
package predict

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wecare-alerts/internal/alert"
	"wecare-alerts/internal/vitals"
)

// Evaluator decides whether a reading is abnormal for its patient.
type Evaluator interface {
	Evaluate(ctx context.Context, patientID string, r vitals.Reading) (vitals.Verdict, error)
}

// Notifier fans an alert out to the patient and their emergency contacts.
type Notifier interface {
	Notify(ctx context.Context, patientID, credential string, r vitals.Reading) (*alert.Outcome, error)
}

// Recorder persists accepted readings.
type Recorder interface {
	Save(ctx context.Context, r vitals.Reading) error
}

const StatusReceived = "received"

// Response is the body returned for an accepted reading.
type Response struct {
	Status     string          `json:"status"`
	IsAbnormal bool            `json:"is_abnormal"`
	Strategy   vitals.Strategy `json:"strategy"`
	*AlertSummary
}

// AlertSummary is present only when an alert was dispatched.
type AlertSummary struct {
	AlertID                string         `json:"alert_id"`
	PatientNotification    alert.Result   `json:"patient_notification"`
	EmergencyNotifications []alert.Result `json:"emergency_notifications"`
}

type Service interface {
	Process(ctx context.Context, credential string, r vitals.Reading) (*Response, error)
}

type service struct {
	engine   Evaluator
	recorder Recorder
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(engine Evaluator, recorder Recorder, notifier Notifier, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		engine:   engine,
		recorder: recorder,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Process(ctx context.Context, credential string, r vitals.Reading) (*Response, error) {
	if err := vitals.Validate(r); err != nil {
		return nil, err
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}

	verdict, err := s.engine.Evaluate(ctx, r.PatientID, r)
	if err != nil {
		return nil, fmt.Errorf("evaluate reading: %w", err)
	}

	s.logger.Info("Reading evaluated",
		zap.String("patient_id", r.PatientID),
		zap.Bool("abnormal", verdict.Abnormal),
		zap.String("strategy", string(verdict.Strategy)),
		zap.Int("history_size", verdict.HistorySize),
	)

	// Persistence and alerting ignore caller cancellation; per-call
	// deadlines in the store and fan-out still bound each step.
	work := context.WithoutCancel(ctx)

	// Saved only after the decision so a reading never scores against itself.
	if err := s.recorder.Save(work, r); err != nil {
		s.logger.Error("Failed to persist reading",
			zap.String("patient_id", r.PatientID),
			zap.Error(err),
		)
	}

	resp := &Response{
		Status:     StatusReceived,
		IsAbnormal: verdict.Abnormal,
		Strategy:   verdict.Strategy,
	}
	if !verdict.Abnormal {
		return resp, nil
	}

	outcome, err := s.notifier.Notify(work, r.PatientID, credential, r)
	if err != nil {
		return nil, err
	}

	contacts := outcome.EmergencyContacts
	if contacts == nil {
		contacts = []alert.Result{}
	}
	resp.AlertSummary = &AlertSummary{
		AlertID:                outcome.AlertID,
		PatientNotification:    outcome.Patient,
		EmergencyNotifications: contacts,
	}
	return resp, nil
}
