package model

import "math"

// SignalName identifies one of the fixed signal slots fed into fusion
type SignalName string

const (
	SignalExternal    SignalName = "external"    // External classifier probability
	SignalPattern     SignalName = "pattern"     // Weighted lexical indicators
	SignalStatistical SignalName = "statistical" // Sentence-length burstiness
	SignalMetadata    SignalName = "metadata"    // Image EXIF metadata
	SignalProperty    SignalName = "property"    // Image pixel/dimension properties
)

// AllSignalNames lists every signal slot in a stable order
var AllSignalNames = []SignalName{SignalExternal, SignalPattern, SignalStatistical, SignalMetadata, SignalProperty}

// Origin records where a signal value came from
type Origin string

const (
	OriginExternal    Origin = "external"
	OriginPattern     Origin = "pattern"
	OriginStatistical Origin = "statistical"
	OriginMetadata    Origin = "metadata"
	OriginProperty    Origin = "property"
)

// Signal is one independently computed indicator
type Signal struct {
	Name      SignalName `json:"name"`
	Value     float64    `json:"value"`
	Available bool       `json:"available"`
	Origin    Origin     `json:"origin"`
}

// AvailableSignal returns a resolved signal
func AvailableSignal(name SignalName, origin Origin, value float64) Signal {
	return Signal{Name: name, Value: Clamp01(value), Available: true, Origin: origin}
}

// UnavailableSignal returns a placeholder that fusion skips
func UnavailableSignal(name SignalName, origin Origin) Signal {
	return Signal{Name: name, Origin: origin}
}

// Clamp01 bounds v to [0,1]; NaN maps to 0
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Round4 rounds to four decimal places
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
