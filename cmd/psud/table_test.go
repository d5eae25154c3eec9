package main

import (
	"strings"
	"testing"

	"psud/internal/psu"
)

func TestRenderStateTable(t *testing.T) {
	out := renderStateTable(psu.DeviceState{
		Output:          true,
		Terminal:        "P25V",
		VoltageSetting:  2.5,
		CurrentLimit:    0.1,
		MeasuredVoltage: 2.4985,
		MeasuredCurrent: 0.005894,
	})

	for _, want := range []string{"Output", "ON", "P25V", "2.500 V", "0.100 A", "2.4985 V", "0.005894 A"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderStateTableOff(t *testing.T) {
	out := renderStateTable(psu.DeviceState{Terminal: "P25V"})
	if !strings.Contains(out, "OFF") {
		t.Errorf("table missing OFF state:\n%s", out)
	}
}
