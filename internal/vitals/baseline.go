package vitals

import "math"

// Stat is the mean and sample standard deviation of one vital.
type Stat struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// IsAbnormal reports whether value deviates from the stat by more than k
// standard deviations. A zero-variance stat flags any value that differs from
// the mean.
func (s Stat) IsAbnormal(value, k float64) bool {
	if s.StdDev > 0 {
		return math.Abs(value-s.Mean) > k*s.StdDev
	}
	return value != s.Mean
}

// Baseline holds a patient's per-vital statistics for one evaluation.
type Baseline struct {
	Temperature Stat `json:"temperature"`
	SpO2        Stat `json:"spo2"`
	HeartRate   Stat `json:"heart_rate"`
}

// Flag checks each vital of r against the baseline.
func (b Baseline) Flag(r Reading, k float64) Flags {
	return Flags{
		Temperature: b.Temperature.IsAbnormal(r.Temperature, k),
		SpO2:        b.SpO2.IsAbnormal(r.SpO2, k),
		HeartRate:   b.HeartRate.IsAbnormal(float64(r.HeartRate), k),
	}
}

// ComputeBaseline summarizes history. Callers guarantee a non-empty history.
func ComputeBaseline(history []Reading) Baseline {
	temps := make([]float64, len(history))
	spo2s := make([]float64, len(history))
	rates := make([]float64, len(history))
	for i, r := range history {
		temps[i] = r.Temperature
		spo2s[i] = r.SpO2
		rates[i] = float64(r.HeartRate)
	}
	return Baseline{
		Temperature: summarize(temps),
		SpO2:        summarize(spo2s),
		HeartRate:   summarize(rates),
	}
}

// summarize returns the arithmetic mean and the n-1 standard deviation.
// Constant series yield the exact sample value and a zero deviation, so
// repeated decimals like 98.6 never drift through the summation.
func summarize(values []float64) Stat {
	if len(values) == 0 {
		return Stat{}
	}

	constant := true
	var sum float64
	for _, v := range values {
		sum += v
		if v != values[0] {
			constant = false
		}
	}
	if constant {
		return Stat{Mean: values[0]}
	}

	n := float64(len(values))
	mean := sum / n
	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return Stat{Mean: mean, StdDev: math.Sqrt(sq / (n - 1))}
}
