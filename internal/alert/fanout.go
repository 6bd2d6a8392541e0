// Package alert notifies a patient and their emergency contacts about an
// abnormal reading.
//
// Pipeline: resolve profile -> render one message per recipient -> dispatch
// all messages concurrently. A failed dispatch is reported on its own result
// and never affects the other recipients.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wecare-alerts/internal/profile"
	"wecare-alerts/internal/vitals"
)

// Dispatcher delivers one rendered message and returns the provider id.
type Dispatcher interface {
	Send(ctx context.Context, to, subject, htmlBody string) (string, error)
}

// LookupError reports a failed profile resolution. Nothing has been sent
// when it is returned.
type LookupError struct {
	PatientID string
	Err       error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("resolve profile for %s: %v", e.PatientID, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

type Options struct {
	// Concurrency caps in-flight dispatches per fan-out; 0 means unbounded.
	Concurrency     int
	LookupTimeout   time.Duration
	DispatchTimeout time.Duration
}

type Fanout struct {
	lookup     profile.Lookup
	dispatcher Dispatcher
	renderer   *Renderer
	opts       Options
	logger     *zap.Logger
}

func NewFanout(lookup profile.Lookup, dispatcher Dispatcher, renderer *Renderer, opts Options, logger *zap.Logger) *Fanout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fanout{
		lookup:     lookup,
		dispatcher: dispatcher,
		renderer:   renderer,
		opts:       opts,
		logger:     logger,
	}
}

// Notify runs one fan-out. Profile errors are returned before anything is
// sent; dispatch errors only ever appear inside the Outcome.
func (f *Fanout) Notify(ctx context.Context, patientID, credential string, r vitals.Reading) (*Outcome, error) {
	lookupCtx, cancel := withTimeout(ctx, f.opts.LookupTimeout)
	p, err := f.lookup.GetProfile(lookupCtx, patientID, credential)
	cancel()
	if err != nil {
		return nil, &LookupError{PatientID: patientID, Err: err}
	}

	alertID := uuid.NewString()
	notes, err := f.renderer.Build(alertID, p, r)
	if err != nil {
		return nil, err
	}

	f.logger.Info("Dispatching alert",
		zap.String("alert_id", alertID),
		zap.String("patient_id", patientID),
		zap.Int("recipients", len(notes)),
	)

	results := f.dispatch(ctx, alertID, notes)
	return &Outcome{
		AlertID:           alertID,
		Patient:           results[0],
		EmergencyContacts: results[1:],
	}, nil
}

// dispatch sends every notification and returns results in input order.
func (f *Fanout) dispatch(ctx context.Context, alertID string, notes []Notification) []Result {
	results := make([]Result, len(notes))

	var g errgroup.Group
	if f.opts.Concurrency > 0 {
		g.SetLimit(f.opts.Concurrency)
	}
	for i, n := range notes {
		g.Go(func() error {
			results[i] = f.send(ctx, alertID, n)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (f *Fanout) send(ctx context.Context, alertID string, n Notification) Result {
	sendCtx, cancel := withTimeout(ctx, f.opts.DispatchTimeout)
	defer cancel()

	res := Result{Recipient: n.Recipient, Name: n.RecipientName}
	id, err := f.dispatcher.Send(sendCtx, n.Recipient, n.Subject, n.Body)
	if err != nil {
		f.logger.Warn("Notification failed",
			zap.String("alert_id", alertID),
			zap.String("kind", string(n.Kind)),
			zap.String("recipient", n.Recipient),
			zap.Error(err),
		)
		res.Status = StatusError
		res.Message = err.Error()
		return res
	}

	res.Status = StatusSent
	res.ID = id
	return res
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
