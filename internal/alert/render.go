package alert

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"wecare-alerts/internal/profile"
	"wecare-alerts/internal/vitals"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer turns a reading into patient and emergency-contact messages.
type Renderer struct {
	tmpl         *template.Template
	dashboardURL string
}

func NewRenderer(dashboardURL string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse alert templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, dashboardURL: dashboardURL}, nil
}

type messageData struct {
	AlertID       string
	RecipientName string
	PatientName   string
	Temperature   float64
	SpO2          float64
	HeartRate     int
	RecordedAt    string
	DashboardURL  string
}

// Build returns the patient notification followed by one notification per
// emergency contact, in profile order.
func (r *Renderer) Build(alertID string, p *profile.Profile, reading vitals.Reading) ([]Notification, error) {
	recorded := reading.Timestamp
	if recorded.IsZero() {
		recorded = time.Now().UTC()
	}
	data := messageData{
		AlertID:      alertID,
		PatientName:  p.Name,
		Temperature:  reading.Temperature,
		SpO2:         reading.SpO2,
		HeartRate:    reading.HeartRate,
		RecordedAt:   recorded.Format("02 Jan 2006 15:04 MST"),
		DashboardURL: r.dashboardURL,
	}

	out := make([]Notification, 0, 1+len(p.EmergencyContacts))

	data.RecipientName = p.Name
	body, err := r.execute("patient.html", data)
	if err != nil {
		return nil, err
	}
	out = append(out, Notification{
		Kind:          KindPatient,
		Recipient:     p.Email,
		RecipientName: p.Name,
		Subject:       "Health alert: abnormal vital signs detected",
		Body:          body,
	})

	for _, c := range p.EmergencyContacts {
		data.RecipientName = c.Name
		body, err := r.execute("contact.html", data)
		if err != nil {
			return nil, err
		}
		out = append(out, Notification{
			Kind:          KindEmergencyContact,
			Recipient:     c.Email,
			RecipientName: c.Name,
			Subject:       fmt.Sprintf("Emergency alert: %s's vital signs need attention", p.Name),
			Body:          body,
		})
	}
	return out, nil
}

func (r *Renderer) execute(name string, data messageData) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
