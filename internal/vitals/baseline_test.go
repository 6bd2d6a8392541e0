package vitals

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func readings(values ...[3]float64) []Reading {
	out := make([]Reading, len(values))
	for i, v := range values {
		out[i] = Reading{PatientID: "p1", Temperature: v[0], SpO2: v[1], HeartRate: int(v[2])}
	}
	return out
}

func TestSummarize(t *testing.T) {
	s := summarize([]float64{97, 99, 97, 99, 98})
	assert.Equal(t, 98.0, s.Mean)
	assert.Equal(t, 1.0, s.StdDev)

	// sample (n-1) deviation: {2,4,4,4,5,5,7,9} -> variance 32/7
	s = summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.Equal(t, 5.0, s.Mean)
	assert.InDelta(t, math.Sqrt(32.0/7.0), s.StdDev, 1e-12)
}

func TestSummarize_ConstantSeriesIsExact(t *testing.T) {
	s := summarize([]float64{98.6, 98.6, 98.6, 98.6, 98.6, 98.6, 98.6})
	assert.Equal(t, 98.6, s.Mean)
	assert.Zero(t, s.StdDev)
}

func TestStat_IsAbnormal_StrictBoundary(t *testing.T) {
	s := Stat{Mean: 98, StdDev: 1}

	assert.False(t, s.IsAbnormal(100, 2), "exactly mean+2σ is not abnormal")
	assert.False(t, s.IsAbnormal(96, 2), "exactly mean-2σ is not abnormal")
	assert.True(t, s.IsAbnormal(100.0001, 2))
	assert.True(t, s.IsAbnormal(95.9999, 2))
}

func TestStat_IsAbnormal_ZeroVariance(t *testing.T) {
	s := Stat{Mean: 98.6}

	assert.False(t, s.IsAbnormal(98.6, 2))
	assert.True(t, s.IsAbnormal(98.7, 2))
	assert.True(t, s.IsAbnormal(98.60001, 2), "any deviation counts regardless of size")
	assert.True(t, s.IsAbnormal(40, 2))
}

func TestComputeBaseline(t *testing.T) {
	b := ComputeBaseline(readings(
		[3]float64{97, 98, 70},
		[3]float64{99, 98, 80},
		[3]float64{97, 98, 70},
		[3]float64{99, 98, 80},
		[3]float64{98, 98, 75},
	))

	assert.Equal(t, Stat{Mean: 98, StdDev: 1}, b.Temperature)
	assert.Equal(t, Stat{Mean: 98}, b.SpO2)
	assert.Equal(t, 75.0, b.HeartRate.Mean)
	assert.InDelta(t, math.Sqrt(100.0/4.0), b.HeartRate.StdDev, 1e-12)

	flags := b.Flag(Reading{Temperature: 100, SpO2: 97, HeartRate: 75}, 2)
	assert.Equal(t, Flags{SpO2: true}, flags)
	assert.True(t, flags.Any())
}
