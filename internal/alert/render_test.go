package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wecare-alerts/internal/profile"
	"wecare-alerts/internal/vitals"
)

func TestBuild_PatientFirstThenContacts(t *testing.T) {
	r, err := NewRenderer("https://wecare.test")
	require.NoError(t, err)

	notes, err := r.Build("alert-1", testProfile(), reading)
	require.NoError(t, err)
	require.Len(t, notes, 4)

	assert.Equal(t, KindPatient, notes[0].Kind)
	assert.Equal(t, "ada@example.com", notes[0].Recipient)
	for i, name := range []string{"Bob", "Cy", "Di"} {
		assert.Equal(t, KindEmergencyContact, notes[i+1].Kind)
		assert.Equal(t, name, notes[i+1].RecipientName)
		assert.Contains(t, notes[i+1].Body, "Hello "+name)
	}
	for _, n := range notes {
		assert.Contains(t, n.Body, "Alert alert-1")
		assert.Contains(t, n.Body, "01 May 2026 12:00 UTC")
	}
}

func TestBuild_EscapesProfileFields(t *testing.T) {
	r, err := NewRenderer("https://wecare.test")
	require.NoError(t, err)

	p := &profile.Profile{
		Name:              "<script>alert(1)</script>",
		Email:             "x@example.com",
		EmergencyContacts: []profile.Contact{{Name: "Eve & Co", Email: "eve@example.com"}},
	}
	notes, err := r.Build("a", p, vitals.Reading{PatientID: "p", Temperature: 99, SpO2: 97, HeartRate: 70, Timestamp: time.Now()})
	require.NoError(t, err)

	assert.NotContains(t, notes[0].Body, "<script>")
	assert.Contains(t, notes[0].Body, "&lt;script&gt;")
	assert.Contains(t, notes[1].Body, "Eve &amp; Co")
}

func TestBuild_ZeroTimestampUsesNow(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	notes, err := r.Build("a", testProfile(), vitals.Reading{PatientID: "p1", Temperature: 99, SpO2: 97, HeartRate: 70})
	require.NoError(t, err)
	assert.NotContains(t, notes[0].Body, "0001")
}
