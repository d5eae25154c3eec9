package psu

import "fmt"

// CommandSet maps session operations onto the instrument's command strings.
// Entries taking a parameter are fmt format strings.
type CommandSet struct {
	Version        string
	Remote         string
	SelectTerminal string // terminal name
	TerminalQuery  string
	OutputQuery    string
	OutputOn       string
	OutputOff      string
	VoltageSet     string // volts
	VoltageQuery   string
	CurrentSet     string // amps
	CurrentQuery   string
	MeasureVoltage string // terminal name
	MeasureCurrent string // terminal name
	Apply          string // terminal name, volts, amps
	ApplyQuery     string // terminal name
}

// DefaultCommandSet is the SCPI dialect of the Agilent E3631A family.
func DefaultCommandSet() CommandSet {
	return CommandSet{
		Version:        "SYST:VERS?",
		Remote:         "SYST:REM",
		SelectTerminal: "INST:SEL %s",
		TerminalQuery:  "INST:SEL?",
		OutputQuery:    "OUTP?",
		OutputOn:       "OUTP ON",
		OutputOff:      "OUTP OFF",
		VoltageSet:     "SOUR:VOLT %.3f",
		VoltageQuery:   "SOUR:VOLT?",
		CurrentSet:     "SOUR:CURR %.3f",
		CurrentQuery:   "SOUR:CURR?",
		MeasureVoltage: "MEAS:VOLT? %s",
		MeasureCurrent: "MEAS:CURR? %s",
		Apply:          "APPL %s, %.3f, %.3f",
		ApplyQuery:     "APPL? %s",
	}
}

func (c CommandSet) selectTerminal(terminal string) string {
	return fmt.Sprintf(c.SelectTerminal, terminal)
}

func (c CommandSet) voltageSet(volts float64) string {
	return fmt.Sprintf(c.VoltageSet, volts)
}

func (c CommandSet) currentSet(amps float64) string {
	return fmt.Sprintf(c.CurrentSet, amps)
}

func (c CommandSet) measureVoltage(terminal string) string {
	return fmt.Sprintf(c.MeasureVoltage, terminal)
}

func (c CommandSet) measureCurrent(terminal string) string {
	return fmt.Sprintf(c.MeasureCurrent, terminal)
}

func (c CommandSet) apply(terminal string, volts, amps float64) string {
	return fmt.Sprintf(c.Apply, terminal, volts, amps)
}
