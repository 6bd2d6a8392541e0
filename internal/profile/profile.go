// Package profile resolves a patient's contact data from the profile service.
package profile

import (
	"context"
	"errors"
)

var (
	ErrNotFound     = errors.New("patient profile not found")
	ErrUnauthorized = errors.New("credential rejected by profile service")
)

// Contact is one registered emergency contact.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile is owned by the profile service and read-only here.
type Profile struct {
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	EmergencyContacts []Contact `json:"emergency_contacts"`
}

// Lookup resolves a patient using the caller's credential.
type Lookup interface {
	GetProfile(ctx context.Context, patientID, credential string) (*Profile, error)
}
