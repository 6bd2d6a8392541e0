package alert

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wecare-alerts/internal/profile"
	"wecare-alerts/internal/vitals"
)

type fakeLookup struct {
	profile *profile.Profile
	err     error
	gotCred string
}

func (f *fakeLookup) GetProfile(ctx context.Context, patientID, credential string) (*profile.Profile, error) {
	f.gotCred = credential
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

type sent struct {
	to      string
	subject string
	body    string
}

// fakeDispatcher fails for addresses in fail and delays per address to
// shuffle completion order.
type fakeDispatcher struct {
	mu     sync.Mutex
	sent   []sent
	fail   map[string]error
	delay  map[string]time.Duration
	active int32
	peak   int32
}

func (d *fakeDispatcher) Send(ctx context.Context, to, subject, body string) (string, error) {
	n := atomic.AddInt32(&d.active, 1)
	defer atomic.AddInt32(&d.active, -1)
	for {
		p := atomic.LoadInt32(&d.peak)
		if n <= p || atomic.CompareAndSwapInt32(&d.peak, p, n) {
			break
		}
	}

	if wait, ok := d.delay[to]; ok {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	d.mu.Lock()
	d.sent = append(d.sent, sent{to: to, subject: subject, body: body})
	d.mu.Unlock()

	if err := d.fail[to]; err != nil {
		return "", err
	}
	return "id-" + to, nil
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Name:  "Ada Patient",
		Email: "ada@example.com",
		EmergencyContacts: []profile.Contact{
			{Name: "Bob", Email: "bob@example.com"},
			{Name: "Cy", Email: "cy@example.com"},
			{Name: "Di", Email: "di@example.com"},
		},
	}
}

func newTestFanout(t *testing.T, lookup profile.Lookup, d Dispatcher, opts Options) *Fanout {
	t.Helper()
	r, err := NewRenderer("https://wecare.test/dashboard")
	require.NoError(t, err)
	return NewFanout(lookup, d, r, opts, zap.NewNop())
}

var reading = vitals.Reading{
	PatientID:   "p1",
	Temperature: 104.5,
	SpO2:        98,
	HeartRate:   75,
	Timestamp:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
}

func TestNotify_AllSent(t *testing.T) {
	lookup := &fakeLookup{profile: testProfile()}
	d := &fakeDispatcher{}
	f := newTestFanout(t, lookup, d, Options{})

	out, err := f.Notify(context.Background(), "p1", "tok", reading)

	require.NoError(t, err)
	assert.Equal(t, "tok", lookup.gotCred)
	assert.NotEmpty(t, out.AlertID)
	assert.Equal(t, Result{Recipient: "ada@example.com", Name: "Ada Patient", Status: StatusSent, ID: "id-ada@example.com"}, out.Patient)
	want := []Result{
		{Recipient: "bob@example.com", Name: "Bob", Status: StatusSent, ID: "id-bob@example.com"},
		{Recipient: "cy@example.com", Name: "Cy", Status: StatusSent, ID: "id-cy@example.com"},
		{Recipient: "di@example.com", Name: "Di", Status: StatusSent, ID: "id-di@example.com"},
	}
	if diff := cmp.Diff(want, out.EmergencyContacts); diff != "" {
		t.Errorf("emergency results mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, d.sent, 4)
}

func TestNotify_PartialFailureKeepsOrder(t *testing.T) {
	d := &fakeDispatcher{
		fail: map[string]error{"cy@example.com": errors.New("mailbox unavailable")},
		delay: map[string]time.Duration{
			"bob@example.com": 60 * time.Millisecond,
			"ada@example.com": 30 * time.Millisecond,
		},
	}
	f := newTestFanout(t, &fakeLookup{profile: testProfile()}, d, Options{})

	out, err := f.Notify(context.Background(), "p1", "tok", reading)

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Patient.Status)
	want := []Result{
		{Recipient: "bob@example.com", Name: "Bob", Status: StatusSent},
		{Recipient: "cy@example.com", Name: "Cy", Status: StatusError, Message: "mailbox unavailable"},
		{Recipient: "di@example.com", Name: "Di", Status: StatusSent},
	}
	if diff := cmp.Diff(want, out.EmergencyContacts, cmpopts.IgnoreFields(Result{}, "ID")); diff != "" {
		t.Errorf("emergency results mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, d.sent, 4, "a failure does not stop the other dispatches")
}

func TestNotify_PatientFailureStillNotifiesContacts(t *testing.T) {
	d := &fakeDispatcher{fail: map[string]error{"ada@example.com": errors.New("bounced")}}
	f := newTestFanout(t, &fakeLookup{profile: testProfile()}, d, Options{})

	out, err := f.Notify(context.Background(), "p1", "tok", reading)

	require.NoError(t, err)
	assert.Equal(t, StatusError, out.Patient.Status)
	assert.Equal(t, "bounced", out.Patient.Message)
	for _, r := range out.EmergencyContacts {
		assert.Equal(t, StatusSent, r.Status)
	}
}

func TestNotify_ProfileNotFound(t *testing.T) {
	d := &fakeDispatcher{}
	f := newTestFanout(t, &fakeLookup{err: profile.ErrNotFound}, d, Options{})

	out, err := f.Notify(context.Background(), "p1", "tok", reading)

	assert.ErrorIs(t, err, profile.ErrNotFound)
	assert.Nil(t, out)
	assert.Empty(t, d.sent, "nothing is sent without a profile")
}

func TestNotify_NoEmergencyContacts(t *testing.T) {
	p := testProfile()
	p.EmergencyContacts = nil
	f := newTestFanout(t, &fakeLookup{profile: p}, &fakeDispatcher{}, Options{})

	out, err := f.Notify(context.Background(), "p1", "tok", reading)

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.Patient.Status)
	assert.Empty(t, out.EmergencyContacts)
}

func TestNotify_DispatchTimeoutIsPerRecipient(t *testing.T) {
	d := &fakeDispatcher{delay: map[string]time.Duration{"cy@example.com": time.Second}}
	f := newTestFanout(t, &fakeLookup{profile: testProfile()}, d, Options{DispatchTimeout: 50 * time.Millisecond})

	out, err := f.Notify(context.Background(), "p1", "tok", reading)

	require.NoError(t, err)
	assert.Equal(t, StatusSent, out.EmergencyContacts[0].Status)
	assert.Equal(t, StatusError, out.EmergencyContacts[1].Status)
	assert.Contains(t, out.EmergencyContacts[1].Message, "deadline exceeded")
	assert.Equal(t, StatusSent, out.EmergencyContacts[2].Status)
}

func TestNotify_ConcurrencyLimit(t *testing.T) {
	delay := map[string]time.Duration{}
	for _, addr := range []string{"ada@example.com", "bob@example.com", "cy@example.com", "di@example.com"} {
		delay[addr] = 20 * time.Millisecond
	}
	d := &fakeDispatcher{delay: delay}
	f := newTestFanout(t, &fakeLookup{profile: testProfile()}, d, Options{Concurrency: 1})

	_, err := f.Notify(context.Background(), "p1", "tok", reading)

	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&d.peak))
}

func TestNotify_MessageVariants(t *testing.T) {
	d := &fakeDispatcher{}
	f := newTestFanout(t, &fakeLookup{profile: testProfile()}, d, Options{Concurrency: 1})

	_, err := f.Notify(context.Background(), "p1", "tok", reading)
	require.NoError(t, err)

	bySubject := map[string]sent{}
	for _, s := range d.sent {
		bySubject[s.to] = s
	}
	patient := bySubject["ada@example.com"]
	assert.Equal(t, "Health alert: abnormal vital signs detected", patient.subject)
	assert.Contains(t, patient.body, "Hello Ada Patient")
	assert.Contains(t, patient.body, "104.5 °F")
	assert.Contains(t, patient.body, "https://wecare.test/dashboard")

	contact := bySubject["bob@example.com"]
	assert.Equal(t, "Emergency alert: Ada Patient's vital signs need attention", contact.subject)
	assert.Contains(t, contact.body, "Hello Bob")
	assert.Contains(t, contact.body, "emergency contact for <strong>Ada Patient</strong>")
	assert.Contains(t, contact.body, "75 bpm")
	assert.False(t, strings.Contains(contact.body, "Open your dashboard"))
}

func TestNotify_LookupErrorType(t *testing.T) {
	f := newTestFanout(t, &fakeLookup{err: errors.New("connection refused")}, &fakeDispatcher{}, Options{})

	_, err := f.Notify(context.Background(), "p1", "tok", reading)

	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "p1", lookupErr.PatientID)
	assert.NotErrorIs(t, err, profile.ErrNotFound)
}

func TestNewFanout_NilLogger(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)
	d := &fakeDispatcher{fail: map[string]error{"bob@example.com": errors.New("rejected")}}
	f := NewFanout(&fakeLookup{profile: testProfile()}, d, r, Options{}, nil)

	var out *Outcome
	assert.NotPanics(t, func() {
		out, err = f.Notify(context.Background(), "p1", "tok", reading)
	})
	require.NoError(t, err)
	assert.Equal(t, StatusError, out.EmergencyContacts[0].Status)
}
