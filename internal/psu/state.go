package psu

import "time"

// DeviceState is one atomic snapshot of the instrument, taken in a single
// scheduler slot. Either every field was freshly read or the snapshot failed
// as a whole.
type DeviceState struct {
	Output          bool
	VoltageSetting  float64
	CurrentLimit    float64
	MeasuredVoltage float64
	MeasuredCurrent float64
	Terminal        string
	TakenAt         time.Time
}
