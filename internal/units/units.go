// Package units converts the raw integer units used on the CoLa A wire
// into engineering units. The device reports angles in 1/10000 degree
// ticks and scan frequencies in 1/100 Hz.
package units

import "math"

// Wire unit scales.
const (
	// AngleTicksPerDegree is the CoLa A angular resolution unit
	// (1/10000 of a degree per tick).
	AngleTicksPerDegree = 10000.0

	// CentiHzPerHz is the CoLa A scan frequency unit (1/100 Hz).
	CentiHzPerHz = 100.0
)

// TicksToDegrees converts a raw angle field (1/10000 degree ticks) to degrees.
func TicksToDegrees(ticks int32) float64 {
	return float64(ticks) / AngleTicksPerDegree
}

// DegreesToTicks converts degrees to the raw 1/10000 degree wire unit.
func DegreesToTicks(deg float64) int32 {
	return int32(math.Round(deg * AngleTicksPerDegree))
}

// CentiHzToHz converts a raw scan frequency field (1/100 Hz) to Hz.
func CentiHzToHz(centiHz uint32) float64 {
	return float64(centiHz) / CentiHzPerHz
}

// HundredthsToDegrees converts the layer angle encoding used in the scan
// header status info (1/100 degree) to degrees.
func HundredthsToDegrees(hundredths int16) float64 {
	return float64(hundredths) / 100.0
}

// DegreesToRadians converts degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
