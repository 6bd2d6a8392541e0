package alert

type Kind string

const (
	KindPatient          Kind = "patient"
	KindEmergencyContact Kind = "emergency_contact"
)

const (
	StatusSent  = "sent"
	StatusError = "error"
)

// Notification is one rendered message for one recipient.
type Notification struct {
	Kind          Kind
	Recipient     string
	RecipientName string
	Subject       string
	Body          string
}

// Result is the dispatch outcome of one notification.
type Result struct {
	Recipient string `json:"recipient"`
	Name      string `json:"name,omitempty"`
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Outcome aggregates one fan-out. EmergencyContacts follows the order of
// the patient's profile.
type Outcome struct {
	AlertID           string
	Patient           Result
	EmergencyContacts []Result
}
