package vitals

import "time"

// Reading is one vital-signs sample produced by a patient's sensors.
type Reading struct {
	PatientID   string    `json:"patient_id"`
	Temperature float64   `json:"temperature"` // °F
	SpO2        float64   `json:"spo2"`        // %
	HeartRate   int       `json:"heart_rate"`  // bpm
	Timestamp   time.Time `json:"timestamp"`
}

type Strategy string

const (
	StrategyBaseline   Strategy = "baseline"
	StrategyClassifier Strategy = "classifier"
)

// Flags marks which vitals deviated from the patient's baseline.
type Flags struct {
	Temperature bool `json:"temperature"`
	SpO2        bool `json:"spo2"`
	HeartRate   bool `json:"heart_rate"`
}

func (f Flags) Any() bool {
	return f.Temperature || f.SpO2 || f.HeartRate
}

// Verdict is the outcome of evaluating one reading.
type Verdict struct {
	Abnormal    bool
	Strategy    Strategy
	HistorySize int
	Flags       Flags     // set on the baseline path only
	Baseline    *Baseline // nil on the classifier path
}
