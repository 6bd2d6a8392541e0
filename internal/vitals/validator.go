package vitals

import (
	"fmt"
	"strings"
)

// Accepted sensor ranges, inclusive on both ends.
const (
	MinTemperature = 86.0
	MaxTemperature = 113.0
	MinSpO2        = 70.0
	MaxSpO2        = 100.0
	MinHeartRate   = 40
	MaxHeartRate   = 180
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a reading cannot be accepted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid reading: " + strings.Join(parts, "; ")
}

// Validate sanity-checks raw sensor values before they reach the engine.
func Validate(r Reading) error {
	var fields []FieldError

	if strings.TrimSpace(r.PatientID) == "" {
		fields = append(fields, FieldError{Field: "patientId", Message: "is required"})
	}
	if !inRange(r.Temperature, MinTemperature, MaxTemperature) {
		fields = append(fields, FieldError{
			Field:   "temperature",
			Message: fmt.Sprintf("%g out of range [%g, %g]", r.Temperature, MinTemperature, MaxTemperature),
		})
	}
	if !inRange(r.SpO2, MinSpO2, MaxSpO2) {
		fields = append(fields, FieldError{
			Field:   "spo2",
			Message: fmt.Sprintf("%g out of range [%g, %g]", r.SpO2, MinSpO2, MaxSpO2),
		})
	}
	if r.HeartRate < MinHeartRate || r.HeartRate > MaxHeartRate {
		fields = append(fields, FieldError{
			Field:   "heartRate",
			Message: fmt.Sprintf("%d out of range [%d, %d]", r.HeartRate, MinHeartRate, MaxHeartRate),
		})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// inRange is false for NaN.
func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}
