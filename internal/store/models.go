package store

import "time"

// InterfacePSU tags queue rows destined for the power supply. Other
// instruments on the same database use their own tag.
const InterfacePSU = "PSU"

// Command kinds understood by the controller.
const (
	KindSetVoltage      = "SET VOLTAGE"
	KindSetCurrentLimit = "SET CURRENT LIMIT"
	KindSetPower        = "SET POWER"
)

// Command is one queued request awaiting a command slot.
type Command struct {
	ID        int64
	Interface string
	Kind      string
	Value     string
	CreatedAt time.Time
}
