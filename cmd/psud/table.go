package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"psud/internal/psu"
)

// renderStateTable lays out one device snapshot as a field/value table,
// values right-aligned so the units line up.
func renderStateTable(state psu.DeviceState) string {
	output := "OFF"
	if state.Output {
		output = "ON"
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})
	tw.AppendRows([]table.Row{
		{"Output", output},
		{"Terminal", state.Terminal},
		{"Voltage setting", fmt.Sprintf("%.3f V", state.VoltageSetting)},
		{"Current limit", fmt.Sprintf("%.3f A", state.CurrentLimit)},
		{"Measured voltage", fmt.Sprintf("%.4f V", state.MeasuredVoltage)},
		{"Measured current", fmt.Sprintf("%.6f A", state.MeasuredCurrent)},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
